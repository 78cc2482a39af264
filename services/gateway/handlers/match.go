// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/AleutianAI/GameMatcher/services/matcher"
	"github.com/AleutianAI/GameMatcher/services/matcher/datatypes"
	"github.com/AleutianAI/GameMatcher/services/matcher/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var matchTracer = otel.Tracer("gamematcher.gateway.handlers")

// HandleMatch resolves one job document synchronously. Validation
// failures are rejected with 400 before any oracle call; category-level
// issues surface only as nulls inside a 200 response.
func HandleMatch(dispatcher *matcher.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := matchTracer.Start(c.Request.Context(), "HandleMatch")
		defer span.End()

		var req datatypes.MatchRequest
		if err := c.BindJSON(&req); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Error("Failed to parse the match request", "error", err)
			countJob("invalid_document")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.Warn("Rejected match request at the document boundary", "error", err)
			countJob("invalid_document")
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  "Invalid match request",
				"detail": err.Error(),
			})
			return
		}

		resp := dispatcher.Dispatch(ctx, &req)
		countJob("success")
		c.JSON(http.StatusOK, resp)
	}
}

func countJob(status string) {
	if m := observability.DefaultMetrics; m != nil {
		m.JobsTotal.WithLabelValues("rest", status).Inc()
	}
}
