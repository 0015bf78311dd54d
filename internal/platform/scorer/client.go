// Package scorer is the HTTP client for the knee X-ray grading model
// service. The service scores radiographs on the Kellgren-Lawrence 0-4
// scale and returns a label plus the softmax confidence.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrUnavailable = errors.New("scoring service unavailable")
	ErrScoreFailed = errors.New("scoring failed")
)

// Grade labels as the model service emits them, indexed by grade.
var gradeLabels = [5]string{"0_Healthy", "1_Doubtful", "2_Minimal", "3_Moderate", "4_Severe"}

// Severity buckets a grade for clinical display.
func Severity(grade int) string {
	switch {
	case grade <= 1:
		return "none"
	case grade == 2:
		return "mild"
	case grade == 3:
		return "moderate"
	default:
		return "severe"
	}
}

// RiskLevel buckets a grade by how urgently it needs clinical follow-up.
func RiskLevel(grade int) string {
	switch {
	case grade <= 1:
		return "low"
	case grade <= 3:
		return "medium"
	default:
		return "high"
	}
}

// Recommendation returns the standing guidance text for a grade. The model
// service does not emit guidance, so it is derived here.
func Recommendation(grade int) string {
	switch grade {
	case 0:
		return "No signs of osteoarthritis. Maintain regular activity."
	case 1:
		return "Doubtful joint narrowing. Monitor symptoms and recheck if pain develops."
	case 2:
		return "Minimal osteoarthritis. Consider low-impact exercise and weight management."
	case 3:
		return "Moderate osteoarthritis. Consult a doctor about pain management and physiotherapy."
	default:
		return "Severe osteoarthritis. Specialist consultation recommended."
	}
}

// Result is one scored radiograph.
type Result struct {
	Grade      int     `json:"grade"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type predictResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Prediction struct {
		GradeIndex      int     `json:"grade_index"`
		Label           string  `json:"label"`
		ConfidenceScore float64 `json:"confidence_score"`
	} `json:"prediction"`
}

// Score submits one image to the model service and returns its grade.
func (c *Client) Score(ctx context.Context, filename string, image io.Reader) (*Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("url", c.baseURL).Msg("scorer request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("scorer returned non-200")
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrScoreFailed, err)
	}
	if !pr.Success {
		return nil, fmt.Errorf("%w: %s", ErrScoreFailed, pr.Error)
	}
	if pr.Prediction.GradeIndex < 0 || pr.Prediction.GradeIndex > 4 {
		return nil, fmt.Errorf("%w: grade %d out of range", ErrScoreFailed, pr.Prediction.GradeIndex)
	}

	label := pr.Prediction.Label
	if label == "" {
		label = gradeLabels[pr.Prediction.GradeIndex]
	}
	log.Debug().
		Int("grade", pr.Prediction.GradeIndex).
		Float64("confidence", pr.Prediction.ConfidenceScore).
		Dur("elapsed", time.Since(start)).
		Msg("radiograph scored")

	return &Result{
		Grade:      pr.Prediction.GradeIndex,
		Label:      label,
		Confidence: pr.Prediction.ConfidenceScore,
	}, nil
}
