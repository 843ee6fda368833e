package ruten

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	productPath = "/product/item"
	imagePath   = "/product/item/image"
)

// Options configures a Client.
type Options struct {
	APIKey    string
	SecretKey string
	SaltKey   string
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
	Logger    *slog.Logger
}

// Client calls the Ruten partner API with HMAC-signed requests.
type Client struct {
	apiKey    string
	secret    string
	salt      string
	baseURL   string
	userAgent string
	http      *http.Client
	log       *slog.Logger
	now       func() time.Time
}

func NewClient(opts Options) *Client {
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		apiKey:    opts.APIKey,
		secret:    opts.SecretKey,
		salt:      opts.SaltKey,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: opts.UserAgent,
		http:      opts.HTTP,
		log:       opts.Logger,
		now:       time.Now,
	}
}

// Sign returns hex(HMAC-SHA256(secret, salt + url + body + timestamp)).
func (c *Client) Sign(url string, body []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(c.salt))
	mac.Write([]byte(url))
	mac.Write(body)
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	return hex.EncodeToString(mac.Sum(nil))
}

// UploadResult is the data part of a successful upload.
type UploadResult struct {
	ItemID   string `json:"item_id"`
	CustomNo string `json:"custom_no"`
}

type response struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	ErrorCode *string         `json:"error_code"`
	ErrorMsg  *string         `json:"error_msg"`
}

// UploadProduct creates item on Ruten.
func (c *Client) UploadProduct(ctx context.Context, item Item) (*UploadResult, error) {
	const op = "ruten.UploadProduct"

	body, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url := c.baseURL + productPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.sign(req, url, body)

	var result UploadResult
	if err := c.do(req, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.log.Info("product uploaded", slog.String("item_id", result.ItemID), slog.String("custom_no", result.CustomNo))
	return &result, nil
}

// UploadPicture attaches the image at path to an uploaded item. The
// signature covers the JSON {"item_id": itemID}.
func (c *Client) UploadPicture(ctx context.Context, itemID, path string) error {
	const op = "ruten.UploadPicture"

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="images[0]"; filename="00001.jpg"`)
	h.Set("Content-Type", "image/jpeg")
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := mw.WriteField("item_id", itemID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	signed, err := json.Marshal(map[string]string{"item_id": itemID})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	url := c.baseURL + imagePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.sign(req, url, signed)

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.log.Info("picture uploaded", slog.String("item_id", itemID), slog.String("path", path))
	return nil
}

func (c *Client) sign(req *http.Request, url string, body []byte) {
	ts := c.now().Unix()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-RT-Key", c.apiKey)
	req.Header.Set("X-RT-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-RT-Authorization", c.Sign(url, body, ts))
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var r response
	decodeErr := json.Unmarshal(raw, &r)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || decodeErr != nil || r.Status != "success" {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
		if decodeErr == nil {
			if r.ErrorCode != nil {
				apiErr.Code = *r.ErrorCode
			}
			if r.ErrorMsg != nil {
				apiErr.Message = *r.ErrorMsg
			}
		}
		c.log.Error("ruten request failed", slog.Int("status", resp.StatusCode), slog.String("body", apiErr.Body))
		return apiErr
	}

	if out != nil && len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// APIError is a non-success answer from the partner API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("ruten api error %d: %s %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("ruten api error %d: %s", e.StatusCode, e.Body)
}
