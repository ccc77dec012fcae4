package notify

import (
	"context"
	"encoding/json"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/judev-jbg/confirmation-invoice/internal/config"
)

// severityTemplates maps alert severities to Lark card header colors
var severityTemplates = map[Severity]string{
	SeverityInfo:     "blue",
	SeveritySuccess:  "green",
	SeverityWarning:  "orange",
	SeverityCritical: "red",
}

// LarkNotifier posts alerts as interactive cards to the ops chat
type LarkNotifier struct {
	client *lark.Client
	chatID string
	logger *zap.Logger
}

// NewLarkNotifier creates a notifier that posts to a Lark chat
func NewLarkNotifier(cfg config.LarkConfig, logger *zap.Logger) *LarkNotifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithEnableTokenCache(true),
		lark.WithReqTimeout(cfg.Timeout),
	)

	return &LarkNotifier{
		client: client,
		chatID: cfg.ChatID,
		logger: logger,
	}
}

// Info posts an info alert
func (n *LarkNotifier) Info(ctx context.Context, title, message string, fields map[string]string) {
	n.send(ctx, SeverityInfo, title, message, fields)
}

// Success posts a success alert
func (n *LarkNotifier) Success(ctx context.Context, title, message string, fields map[string]string) {
	n.send(ctx, SeveritySuccess, title, message, fields)
}

// Warning posts a warning alert
func (n *LarkNotifier) Warning(ctx context.Context, title, message string, fields map[string]string) {
	n.send(ctx, SeverityWarning, title, message, fields)
}

// Critical posts a critical alert
func (n *LarkNotifier) Critical(ctx context.Context, title, message string, fields map[string]string) {
	n.send(ctx, SeverityCritical, title, message, fields)
}

func (n *LarkNotifier) send(ctx context.Context, severity Severity, title, message string, fields map[string]string) {
	content, err := buildCard(severity, title, message, fields)
	if err != nil {
		n.logger.Error("Failed to build alert card", zap.Error(err))
		return
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.chatID).
			MsgType("interactive").
			Content(content).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send alert",
			zap.String("severity", string(severity)),
			zap.String("title", title),
			zap.Error(err))
		return
	}

	if !resp.Success() {
		n.logger.Error("Alert API returned failure",
			zap.String("severity", string(severity)),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return
	}

	n.logger.Debug("Alert sent",
		zap.String("severity", string(severity)),
		zap.String("title", title))
}

// buildCard assembles the interactive card JSON for an alert
func buildCard(severity Severity, title, message string, fields map[string]string) (string, error) {
	elements := []map[string]any{
		{
			"tag": "div",
			"text": map[string]any{
				"tag":     "lark_md",
				"content": message,
			},
		},
	}

	if len(fields) > 0 {
		card := ""
		for k, v := range fields {
			card += "**" + k + ":** " + v + "\n"
		}
		elements = append(elements, map[string]any{
			"tag": "div",
			"text": map[string]any{
				"tag":     "lark_md",
				"content": card,
			},
		})
	}

	payload := map[string]any{
		"config": map[string]any{"wide_screen_mode": true},
		"header": map[string]any{
			"template": severityTemplates[severity],
			"title": map[string]any{
				"tag":     "plain_text",
				"content": title,
			},
		},
		"elements": elements,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
