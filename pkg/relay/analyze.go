package relay

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jpbenga/tyrecheck/pkg/classifier"
	"github.com/jpbenga/tyrecheck/pkg/logging"
	"github.com/jpbenga/tyrecheck/pkg/metrics"
)

// uploadField is the fixed multipart field name for the image
const uploadField = "image"

// handleAnalyze accepts one image upload, hands it to the classifier and
// republishes the classifier's JSON result
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := logging.LogWithRequestID(s.logger, requestID)

	outcome := "server_error"
	status := http.StatusInternalServerError
	defer func() {
		metrics.RecordAnalyzeRequest(status, outcome, time.Since(start).Seconds())
	}()

	if err := r.ParseMultipartForm(s.config.Upload.MaxSize); err != nil {
		status, outcome = http.StatusBadRequest, "client_error"
		metrics.RecordUploadRejection("oversized_or_malformed")
		s.writeError(w, status, "Could not read upload", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		status, outcome = http.StatusBadRequest, "client_error"
		metrics.RecordUploadRejection("missing_file")
		s.writeError(w, status, "No file received. Field name must be 'image'.", "")
		return
	}
	defer file.Close()

	if header.Size > s.config.Upload.MaxSize {
		status, outcome = http.StatusBadRequest, "client_error"
		metrics.RecordUploadRejection("oversized")
		s.writeError(w, status,
			fmt.Sprintf("File too large. Maximum size is %d bytes.", s.config.Upload.MaxSize), "")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		status, outcome = http.StatusBadRequest, "client_error"
		metrics.RecordUploadRejection("unreadable")
		s.writeError(w, status, "Could not read upload", err.Error())
		return
	}

	// Reject unsupported formats before the classifier ever runs
	format, err := DetectFormat(header, data, s.config.Upload.AllowedFormats)
	if err != nil {
		status, outcome = http.StatusBadRequest, "client_error"
		metrics.RecordUploadRejection(rejectionReason(err))
		s.writeError(w, status, err.Error(), "")
		return
	}

	logger.WithFields(logrus.Fields{
		"filename": header.Filename,
		"size":     header.Size,
		"format":   format,
	}).Info("Upload accepted")

	// The upload lives in a per-request temp file which is always
	// removed, on success and failure alike
	imagePath := filepath.Join(s.config.Upload.TempDir,
		fmt.Sprintf("img_%s.%s", requestID, format))
	if err := os.WriteFile(imagePath, data, 0o600); err != nil {
		s.writeError(w, status, "Internal Server Error", err.Error())
		return
	}
	defer os.Remove(imagePath)

	classifyPath := imagePath
	if s.config.Upload.Normalize {
		normalizedPath := filepath.Join(s.config.Upload.TempDir,
			fmt.Sprintf("img_%s_norm.jpeg", requestID))

		if err := NormalizeImage(imagePath, normalizedPath, s.config.Upload.NormalizeSize); err != nil {
			status, outcome = http.StatusBadRequest, "client_error"
			metrics.RecordUploadRejection("undecodable")
			s.writeError(w, status, "Cannot read image file. Invalid or corrupted image.", err.Error())
			return
		}
		defer os.Remove(normalizedPath)
		classifyPath = normalizedPath
	}

	classification, err := s.classifier.Classify(r.Context(), classifyPath)
	if err != nil {
		s.writeError(w, status, "Internal Server Error", classifierDetails(err))
		return
	}

	status, outcome = http.StatusOK, "success"
	s.writeJSON(w, status, classification)
}

// classifierDetails extracts diagnostic text from a classifier failure
func classifierDetails(err error) string {
	switch e := err.(type) {
	case *classifier.InvocationError:
		if e.Stderr != "" {
			return fmt.Sprintf("%s\n---- stderr ----\n%s", e.Message, e.Stderr)
		}
		return e.Message
	case *classifier.OutputError:
		return e.Reason
	default:
		return err.Error()
	}
}

func rejectionReason(err error) string {
	if _, ok := err.(*HEICError); ok {
		return "heic"
	}
	return "unsupported_format"
}
