// Package report writes Allure-compatible test results: one JSON result file
// per test plus named text/PNG attachment files, all under a results
// directory picked up by the report generator.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Attachment MIME types understood by the report generator.
const (
	MimePNG  = "image/png"
	MimeText = "text/plain"
)

// Test statuses recognised by the report generator.
const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

type attachmentRef struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

type label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type statusDetails struct {
	Message string `json:"message,omitempty"`
}

type stepResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Stage  string `json:"stage"`
	Start  int64  `json:"start"`
	Stop   int64  `json:"stop"`
}

type testResult struct {
	UUID          string          `json:"uuid"`
	HistoryID     string          `json:"historyId"`
	Name          string          `json:"name"`
	FullName      string          `json:"fullName"`
	Status        string          `json:"status"`
	StatusDetails *statusDetails  `json:"statusDetails,omitempty"`
	Stage         string          `json:"stage"`
	Steps         []stepResult    `json:"steps"`
	Attachments   []attachmentRef `json:"attachments"`
	Labels        []label         `json:"labels"`
	Start         int64           `json:"start"`
	Stop          int64           `json:"stop"`
}

// Reporter accumulates steps and attachments for a single test and writes
// the result file on Finish. A nil *Reporter is valid and does nothing, so
// page objects can run without reporting wired.
type Reporter struct {
	dir    string
	logger *logrus.Logger
	result testResult
	done   bool
}

// NewReporter starts a result for the named test. The results directory is
// created if needed.
func NewReporter(dir, testName string, logger *logrus.Logger) *Reporter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warnf("Failed to create results directory %s: %v", dir, err)
	}

	id := uuid.NewString()
	return &Reporter{
		dir:    dir,
		logger: logger,
		result: testResult{
			UUID:        id,
			HistoryID:   id,
			Name:        testName,
			FullName:    testName,
			Stage:       "finished",
			Steps:       []stepResult{},
			Attachments: []attachmentRef{},
			Labels: []label{
				{Name: "language", Value: "go"},
				{Name: "framework", Value: "go test"},
			},
			Start: nowMillis(),
		},
	}
}

// Step records a named step. Steps in this harness are instantaneous
// markers around the underlying driver call.
func (r *Reporter) Step(name string) {
	if r == nil {
		return
	}
	ts := nowMillis()
	r.result.Steps = append(r.result.Steps, stepResult{
		Name:   name,
		Status: StatusPassed,
		Stage:  "finished",
		Start:  ts,
		Stop:   ts,
	})
}

// Attach stores content as a named attachment. Errors are logged and
// swallowed: a broken attachment must never change a test's outcome.
func (r *Reporter) Attach(name, mimeType string, content []byte) {
	if r == nil {
		return
	}
	source := fmt.Sprintf("%s-attachment%s", uuid.NewString(), extFor(mimeType))
	if err := os.WriteFile(filepath.Join(r.dir, source), content, 0644); err != nil {
		r.logger.Warnf("Failed to write attachment %q: %v", name, err)
		return
	}
	r.result.Attachments = append(r.result.Attachments, attachmentRef{
		Name:   name,
		Source: source,
		Type:   mimeType,
	})
}

// AttachFile reads path and attaches its content as a PNG. Unreadable files
// are logged and ignored.
func (r *Reporter) AttachFile(name, path string) {
	if r == nil {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warnf("Failed to read attachment file %s: %v", path, err)
		return
	}
	r.Attach(name, MimePNG, data)
}

// Finish writes the result file. message goes into statusDetails for failed
// tests. Finish is idempotent; only the first call writes.
func (r *Reporter) Finish(status, message string) {
	if r == nil || r.done {
		return
	}
	r.done = true

	r.result.Status = status
	r.result.Stop = nowMillis()
	if message != "" {
		r.result.StatusDetails = &statusDetails{Message: message}
	}

	data, err := json.Marshal(r.result)
	if err != nil {
		r.logger.Warnf("Failed to marshal test result: %v", err)
		return
	}
	path := filepath.Join(r.dir, r.result.UUID+"-result.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		r.logger.Warnf("Failed to write test result %s: %v", path, err)
	}
}

func extFor(mimeType string) string {
	switch mimeType {
	case MimePNG:
		return ".png"
	case MimeText:
		return ".txt"
	default:
		return ""
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
