package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const ssePrefix = "data: "

// StreamInvestigation открывает SSE-поток расследования.
// Канал закрывается по концу потока или отмене ctx. Битые строки пропускаются.
func (c *Client) StreamInvestigation(ctx context.Context, investigationID string) (<-chan json.RawMessage, error) {
	endpoint := PathInvestigationStream + url.PathEscape(investigationID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, unavailable(endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, newStatusError(endpoint, resp)
	}

	out := make(chan json.RawMessage)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		err := DecodeEvents(resp.Body, c.logger, func(msg json.RawMessage) bool {
			select {
			case out <- msg:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil && ctx.Err() == nil {
			c.logger.Warn("investigation stream interrupted",
				zap.String("investigation_id", investigationID), zap.Error(err))
		}
	}()

	return out, nil
}

// DecodeEvents читает построчный поток `data: <json>` и вызывает emit для каждого валидного payload.
// emit возвращает false, чтобы остановить чтение.
func DecodeEvents(r io.Reader, logger *zap.Logger, emit func(json.RawMessage) bool) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if !strings.HasPrefix(line, ssePrefix) {
			continue
		}

		payload := []byte(strings.TrimPrefix(line, ssePrefix))
		if !json.Valid(payload) {
			logger.Debug("skipping malformed stream line", zap.Int("len", len(payload)))
			continue
		}

		if !emit(json.RawMessage(payload)) {
			return nil
		}
	}
	return scanner.Err()
}
