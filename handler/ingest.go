package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/AnTengye/fleetdocs/pkg/logger"
	"github.com/AnTengye/fleetdocs/service"
	"github.com/gin-gonic/gin"
)

type IngestHandler struct {
	batch    *service.BatchProcessor
	matcher  *service.Matcher
	merger   *service.Merger
	sessions *service.SessionStore
	maxFiles int
}

func NewIngestHandler(batch *service.BatchProcessor, matcher *service.Matcher, merger *service.Merger, maxFiles int) *IngestHandler {
	return &IngestHandler{
		batch:    batch,
		matcher:  matcher,
		merger:   merger,
		sessions: service.GetSessionStore(),
		maxFiles: maxFiles,
	}
}

// Ingest processes a multipart batch of scanned documents. The response
// carries the batch summary; when documents could not be matched it also
// opens a resolution session and returns its first presented item.
func (h *IngestHandler) Ingest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}
	if h.maxFiles > 0 && len(headers) > h.maxFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Too many files, limit is %d", h.maxFiles)})
		return
	}

	files := make([]service.InputFile, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file: " + header.Filename})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file: " + header.Filename})
			return
		}

		contentType := header.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}

		files = append(files, service.InputFile{
			Filename: header.Filename,
			MimeType: contentType,
			Data:     data,
		})
	}

	logger.Info(c.Request.Context(), "batch ingestion started", "files", len(files))

	result := h.batch.Process(c.Request.Context(), files)

	response := gin.H{
		"processed": result.Processed,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
		"log":       result.Log,
	}

	if len(result.Unmatched) > 0 {
		queue := service.NewResolutionQueue(result.Unmatched, h.matcher, h.merger)
		session := h.sessions.Create(queue)
		current, _ := queue.Current()

		response["unmatched_count"] = len(result.Unmatched)
		response["session_id"] = session.ID
		response["current"] = current
	}

	logger.Info(c.Request.Context(), "batch ingestion finished",
		"processed", result.Processed,
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"unmatched", len(result.Unmatched),
	)

	c.JSON(http.StatusOK, response)
}
