package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ostaran/agentcore/pkg/llm"
)

const streamBufferSize = 1024 * 1024

// consumeEventStream decodes the Messages API event stream and forwards text
// deltas to fn. Every payload carries its type inline, so the `event:` lines
// are skipped and each `data:` line is decoded on its own; the stream ends at
// message_stop. Tool-use deltas never appear here: tool turns go through the
// non-streaming path.
func consumeEventStream(ctx context.Context, r io.Reader, fn llm.StreamFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), streamBufferSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(line[5:])
		if payload == "" {
			continue
		}

		var envelope streamEnvelope
		if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
			return fmt.Errorf("decode anthropic stream envelope: %w", err)
		}
		switch envelope.Type {
		case "content_block_delta":
			var event contentBlockDeltaEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				return fmt.Errorf("decode anthropic delta: %w", err)
			}
			if event.Delta.Type != "text_delta" || event.Delta.Text == "" {
				continue
			}
			if err := fn(event.Delta.Text); err != nil {
				return err
			}
		case "message_stop":
			return nil
		}
	}
	return scanner.Err()
}
