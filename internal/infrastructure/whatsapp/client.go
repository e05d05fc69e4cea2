package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dukaandost/backend/internal/domain/messaging"
	"github.com/dukaandost/backend/internal/infrastructure/telemetry"
)

// maxResponseSize limits how much of a Graph API response is read
const maxResponseSize = 1 << 20

// FailedUploadText is sent to the recipient when an image could not be uploaded
const FailedUploadText = "⚠️ Failed to upload image."

var (
	// ErrMediaUpload is returned when the media endpoint yields no id
	ErrMediaUpload = errors.New("whatsapp: media upload failed")
	// ErrRequestFailed is returned for non-2xx Graph API answers
	ErrRequestFailed = errors.New("whatsapp: request failed")
)

// Client sends messages through the WhatsApp Cloud API
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Cloud API client
func NewClient(config ClientConfig, logger *zap.Logger, opts ...ClientOption) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.Named("whatsapp"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SendText sends a plain text message
func (c *Client) SendText(ctx context.Context, to, body string) error {
	_, err := c.sendMessage(ctx, outboundMessage{
		MessagingProduct: MessagingProduct,
		To:               to,
		Type:             MessageTypeText,
		Text:             &textContent{Body: body},
	})
	if err != nil {
		return fmt.Errorf("send text to %s: %w", to, err)
	}
	return nil
}

// SendImage uploads the PNG at filePath and sends it with caption.
// When the upload fails the recipient is told so and ErrMediaUpload is returned.
func (c *Client) SendImage(ctx context.Context, to, filePath, caption string) error {
	mediaID, err := c.uploadMedia(ctx, filePath)
	if err != nil {
		c.logger.Warn("media upload failed", zap.String("file", filePath), zap.Error(err))
		if sendErr := c.SendText(ctx, to, FailedUploadText); sendErr != nil {
			c.logger.Warn("failed to report upload failure", zap.String("to", to), zap.Error(sendErr))
		}
		return fmt.Errorf("%w: %v", ErrMediaUpload, err)
	}

	_, err = c.sendMessage(ctx, outboundMessage{
		MessagingProduct: MessagingProduct,
		To:               to,
		Type:             MessageTypeImage,
		Image:            &imageContent{ID: mediaID, Caption: caption},
	})
	if err != nil {
		return fmt.Errorf("send image to %s: %w", to, err)
	}
	return nil
}

func (c *Client) uploadMedia(ctx context.Context, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("messaging_product", MessagingProduct); err != nil {
		return "", err
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filePath)))
	header.Set("Content-Type", "image/png")
	part, err := w.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	respBody, err := c.do(ctx, "media", w.FormDataContentType(), &body)
	if err != nil {
		return "", err
	}
	var resp mediaUploadResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if resp.ID == "" {
		return "", errors.New("response carried no media id")
	}
	return resp.ID, nil
}

func (c *Client) sendMessage(ctx context.Context, msg outboundMessage) (*SendResponse, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	respBody, err := c.do(ctx, "messages", "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	var resp SendResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		c.logger.Debug("unparseable send response", zap.ByteString("body", respBody))
		return &SendResponse{}, nil
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, endpoint, contentType string, body io.Reader) (respBody []byte, err error) {
	ctx, span := telemetry.StartSpan(ctx, "whatsapp."+endpoint,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("whatsapp.endpoint", endpoint),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	url := fmt.Sprintf("%s/%s/%s/%s", c.config.BaseURL, c.config.APIVersion, c.config.PhoneNumberID, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	telemetry.SetAttribute(span, "http.status_code", resp.StatusCode)
	c.logger.Debug("graph api response",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode >= 300 {
		var gerr graphErrorResponse
		if json.Unmarshal(respBody, &gerr) == nil && gerr.Error.Message != "" {
			return nil, fmt.Errorf("%w: HTTP %d: %s (code %d)", ErrRequestFailed, resp.StatusCode, gerr.Error.Message, gerr.Error.Code)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}
	return respBody, nil
}

// Ensure Client implements Messenger
var _ messaging.Messenger = (*Client)(nil)
