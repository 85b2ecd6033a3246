package core

import (
	"context"
	"strings"
	"unicode/utf8"

	"pkt.systems/uqlabs/internal/backend"
	"pkt.systems/uqlabs/internal/logx"
	"pkt.systems/uqlabs/schema"
)

const (
	defaultChatTitle = "New chat"
	chatTitleRunes   = 40
)

func (s *service) NewChat(ctx context.Context, req schema.NewChatRequest) (schema.NewChatResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.NewChatResponse{}, err
	}
	model := s.cfg.DefaultModel
	if strings.TrimSpace(string(req.ModelID)) != "" {
		normalized, err := schema.NormalizeModelID(string(req.ModelID))
		if err != nil {
			return schema.NewChatResponse{}, err
		}
		model = normalized
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultChatTitle
	}
	chat := &schema.Chat{
		ID:       schema.ChatID(newID()),
		Title:    title,
		Mode:     schema.ParseChatMode(string(req.Mode)),
		ModelID:  model,
		Messages: []schema.Message{},
	}
	s.mu.Lock()
	s.chats[chat.ID] = chat
	s.chatOrder = append(s.chatOrder, chat.ID)
	out := cloneChat(chat)
	s.mu.Unlock()
	logx.WithChat(logx.Ctx(ctx), chat.ID).Info("service chat create ok", "model", model, "mode", chat.Mode)
	return schema.NewChatResponse{Chat: out}, nil
}

func (s *service) ListChats(ctx context.Context, _ schema.ListChatsRequest) (schema.ListChatsResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.ListChatsResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.Chat, 0, len(s.chatOrder))
	for _, id := range s.chatOrder {
		out = append(out, cloneChat(s.chats[id]))
	}
	return schema.ListChatsResponse{Chats: out}, nil
}

func (s *service) GetChat(ctx context.Context, req schema.GetChatRequest) (schema.GetChatResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.GetChatResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[req.ChatID]
	if !ok {
		return schema.GetChatResponse{}, schema.ErrChatNotFound
	}
	return schema.GetChatResponse{Chat: cloneChat(chat)}, nil
}

func (s *service) DeleteChat(ctx context.Context, req schema.DeleteChatRequest) (schema.DeleteChatResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.DeleteChatResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[req.ChatID]; !ok {
		return schema.DeleteChatResponse{Deleted: false}, nil
	}
	delete(s.chats, req.ChatID)
	for i, id := range s.chatOrder {
		if id == req.ChatID {
			s.chatOrder = append(s.chatOrder[:i], s.chatOrder[i+1:]...)
			break
		}
	}
	logx.WithChat(logx.Ctx(ctx), req.ChatID).Info("service chat delete ok")
	return schema.DeleteChatResponse{Deleted: true}, nil
}

// SendMessage appends the user message, asks the assistant and appends the
// reply. On failure the user message stays in the chat.
func (s *service) SendMessage(ctx context.Context, req schema.SendMessageRequest) (schema.SendMessageResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.SendMessageResponse{}, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return schema.SendMessageResponse{}, schema.ErrEmptyMessage
	}
	s.mu.Lock()
	chat, ok := s.chats[req.ChatID]
	if !ok {
		s.mu.Unlock()
		return schema.SendMessageResponse{}, schema.ErrChatNotFound
	}
	if len(chat.Messages) == 0 && chat.Title == defaultChatTitle {
		chat.Title = chatTitle(content)
	}
	chat.Messages = append(chat.Messages, schema.Message{ID: schema.MessageID(newID()), Role: schema.RoleUser, Content: content})
	history := make([]backend.ChatMessage, 0, len(chat.Messages))
	for _, msg := range chat.Messages {
		history = append(history, backend.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}
	model, mode := chat.ModelID, chat.Mode
	s.mu.Unlock()

	log := logx.WithChat(logx.Ctx(ctx), req.ChatID).With("model", model)
	var keys map[string]string
	if current, err := s.settings.Load(); err != nil {
		log.Warn("service chat settings load failed", "err", err)
	} else {
		keys = current.APIKeys
	}
	log.Info("service chat send start", "messages", len(history))
	reply, err := s.backend.Chat(ctx, backend.ChatRequest{
		Messages: history,
		Model:    string(model),
		Mode:     string(mode),
		APIKeys:  keys,
	})
	if err != nil {
		log.Warn("service chat send failed", "err", err)
		s.notify(schema.NotifyError, backend.Message(err), "", "")
		return schema.SendMessageResponse{}, err
	}

	msg := schema.Message{ID: schema.MessageID(newID()), Role: schema.RoleAssistant, Content: reply}
	s.mu.Lock()
	chat, ok = s.chats[req.ChatID]
	if !ok {
		s.mu.Unlock()
		log.Warn("service chat reply dropped")
		return schema.SendMessageResponse{}, schema.ErrChatNotFound
	}
	chat.Messages = append(chat.Messages, msg)
	out := cloneChat(chat)
	s.mu.Unlock()
	log.Info("service chat send ok", "reply_bytes", len(reply))
	return schema.SendMessageResponse{Chat: out, Reply: msg}, nil
}

// ListModels returns the built-in models followed by custom models from
// settings. A custom model with a built-in id is dropped.
func (s *service) ListModels(ctx context.Context, _ schema.ListModelsRequest) (schema.ListModelsResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.ListModelsResponse{}, err
	}
	models := make([]schema.ModelInfo, 0, len(s.cfg.BuiltinModels))
	seen := make(map[schema.ModelID]struct{}, len(s.cfg.BuiltinModels))
	for _, m := range s.cfg.BuiltinModels {
		m.Custom = false
		models = append(models, m)
		seen[m.ID] = struct{}{}
	}
	current, err := s.settings.Load()
	if err != nil {
		return schema.ListModelsResponse{}, err
	}
	for _, m := range current.CustomModels {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		name := m.Name
		if name == "" {
			name = string(m.ID)
		}
		models = append(models, schema.ModelInfo{ID: m.ID, Name: name, Provider: m.Provider, Custom: true})
	}
	return schema.ListModelsResponse{Models: models, Default: s.cfg.DefaultModel}, nil
}

func chatTitle(content string) string {
	line := strings.TrimSpace(strings.SplitN(content, "\n", 2)[0])
	if utf8.RuneCountInString(line) <= chatTitleRunes {
		return line
	}
	runes := []rune(line)
	return strings.TrimSpace(string(runes[:chatTitleRunes])) + "..."
}

func cloneChat(chat *schema.Chat) schema.Chat {
	out := *chat
	out.Messages = append([]schema.Message(nil), chat.Messages...)
	if out.Messages == nil {
		out.Messages = []schema.Message{}
	}
	return out
}
