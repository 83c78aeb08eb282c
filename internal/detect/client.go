package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Client calls a model server over HTTP:
//
//	POST <base>/predict   multipart "file" + "model"  -> {"detections": [...]}
//	POST <base>/validate  {"model", "data", "save_json"} -> Metrics
//	GET  <base>/health
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a client for the model server at baseURL using the
// model at modelPath.
func NewClient(baseURL, modelPath string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   modelPath,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("detector"),
	}
}

// Detect uploads the image and returns the server's detections.
func (c *Client) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return nil, errors.Wrap(err, "create form file")
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, errors.Wrap(err, "copy image data")
	}
	if c.model != "" {
		if err := writer.WriteField("model", c.model); err != nil {
			return nil, errors.Wrap(err, "write model field")
		}
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result struct {
		Detections []Detection `json:"detections"`
	}
	if err := c.do(req, &result); err != nil {
		return nil, errors.Wrapf(err, "detect %s", imagePath)
	}

	c.logger.Debug("detections received",
		zap.String("image", imagePath),
		zap.Int("count", len(result.Detections)),
	)
	return result.Detections, nil
}

// Validate asks the server to evaluate the model on a dataset.
func (c *Client) Validate(ctx context.Context, vr ValidateRequest) (*Metrics, error) {
	payload := struct {
		Model string `json:"model,omitempty"`
		ValidateRequest
	}{Model: c.model, ValidateRequest: vr}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/validate", bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	var metrics Metrics
	if err := c.do(req, &metrics); err != nil {
		return nil, errors.Wrapf(err, "validate %s", vr.Data)
	}

	c.logger.Debug("validation metrics received",
		zap.String("data", vr.Data),
		zap.Float64("map50", metrics.MAP50),
	)
	return &metrics, nil
}

// CheckHealth reports whether the model server is reachable.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	return c.do(req, nil)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("model server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
