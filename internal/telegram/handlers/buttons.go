package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/codex-k8s/telegram-jotting-pal/internal/llm"
	"github.com/codex-k8s/telegram-jotting-pal/internal/prompts"
)

// Callback data of inline buttons.
const (
	ButtonNihongoTranslate           = "NihongoTranslate"
	ButtonNihongoExplain             = "NihongoExplain"
	ButtonNihongoSceneMock           = "NihongoSceneMock"
	ButtonNihongoSceneMockCafe       = "NihongoSceneMockCafe"
	ButtonNihongoSceneMockRestaurant = "NihongoSceneMockRestaurant"
	ButtonNihongoSceneMockClothes    = "NihongoSceneMockClothesShop"
	ButtonNihongoSceneMockStreet     = "NihongoSceneMockStreet"
	ButtonNihongoSceneMockSmallTalk  = "NihongoSceneMockSmallTalk"
	ButtonNihongoSceneMockGoBack     = "NihongoSceneMockGoBack"
	ButtonSettingsLMGPT35Turbo       = "SettingsLMGPT35Turbo"
	ButtonSettingsLMGPT35Turbo16K    = "SettingsLMGPT35Turbo16K"
	ButtonSettingsLMGPT4             = "SettingsLMGPT4"
)

var settingsButtons = map[string]string{
	ButtonSettingsLMGPT35Turbo:    llm.ModelGPT35Turbo,
	ButtonSettingsLMGPT35Turbo16K: llm.ModelGPT35Turbo16K,
	ButtonSettingsLMGPT4:          llm.ModelGPT4,
}

func (h *Handler) nihongoKeyboard() *telego.InlineKeyboardMarkup {
	b := h.msg.Buttons
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(b.Translate).WithCallbackData(ButtonNihongoTranslate),
			tu.InlineKeyboardButton(b.Explain).WithCallbackData(ButtonNihongoExplain),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(b.SceneMock).WithCallbackData(ButtonNihongoSceneMock),
		),
	)
}

func (h *Handler) sceneKeyboard() *telego.InlineKeyboardMarkup {
	b := h.msg.Buttons
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(b.Restaurant).WithCallbackData(ButtonNihongoSceneMockRestaurant),
			tu.InlineKeyboardButton(b.Cafe).WithCallbackData(ButtonNihongoSceneMockCafe),
			tu.InlineKeyboardButton(b.ClothesShop).WithCallbackData(ButtonNihongoSceneMockClothes),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(b.Street).WithCallbackData(ButtonNihongoSceneMockStreet),
			tu.InlineKeyboardButton(b.SmallTalk).WithCallbackData(ButtonNihongoSceneMockSmallTalk),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(b.GoBack).WithCallbackData(ButtonNihongoSceneMockGoBack),
		),
	)
}

func settingsKeyboard() *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(llm.ModelGPT35Turbo).WithCallbackData(ButtonSettingsLMGPT35Turbo),
			tu.InlineKeyboardButton(llm.ModelGPT35Turbo16K).WithCallbackData(ButtonSettingsLMGPT35Turbo16K),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(llm.ModelGPT4).WithCallbackData(ButtonSettingsLMGPT4),
		),
	)
}

// showNihongoMenu sends the nihongo menu, or edits message into it.
func (h *Handler) showNihongoMenu(ctx context.Context, log *slog.Logger, message *telego.Message, edit bool) {
	var err error
	if edit {
		_, err = h.sender.Edit(ctx, message.Chat.ID, message.MessageID, h.msg.NihongoMenu, h.nihongoKeyboard())
	} else {
		_, err = h.sender.Send(ctx, message.Chat.ID, message.MessageID, h.msg.NihongoMenu, h.nihongoKeyboard())
	}
	if err != nil {
		log.Error("Failed to show nihongo menu", "error", err)
	}
}

func (h *Handler) showSettings(ctx context.Context, log *slog.Logger, message *telego.Message) {
	if _, err := h.sender.Send(ctx, message.Chat.ID, message.MessageID, h.msg.SettingsMenu, settingsKeyboard()); err != nil {
		log.Error("Failed to show settings", "error", err)
	}
}

func (h *Handler) handleCallback(ctx context.Context, log *slog.Logger, query *telego.CallbackQuery) {
	log = log.With("callback_id", query.ID, "data", query.Data)
	answer := ""
	defer func() {
		err := h.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
			CallbackQueryID: query.ID,
			Text:            answer,
		})
		if err != nil {
			log.Error("Failed to answer callback", "error", err)
		}
	}()

	message, ok := query.Message.(*telego.Message)
	if !ok || message == nil {
		log.Warn("Callback without accessible message")
		answer = h.msg.InvalidAction
		return
	}
	if !h.chatAllowed(message.Chat.ID) {
		log.Debug("Callback from foreign chat ignored", "chat_id", message.Chat.ID)
		return
	}

	switch query.Data {
	case ButtonNihongoTranslate:
		h.startThread(ctx, log, message, h.msg.NihongoTranslate, prompts.NihongoTranslate)
	case ButtonNihongoExplain:
		h.startThread(ctx, log, message, h.msg.NihongoExplain, prompts.NihongoExplain)
	case ButtonNihongoSceneMock:
		if _, err := h.sender.Edit(ctx, message.Chat.ID, message.MessageID, h.msg.SceneMenu, h.sceneKeyboard()); err != nil {
			log.Error("Failed to show scene menu", "error", err)
		}
	case ButtonNihongoSceneMockCafe:
		h.startThread(ctx, log, message, h.msg.SceneCafe, prompts.NihongoSceneMockCafe)
	case ButtonNihongoSceneMockRestaurant:
		h.startThread(ctx, log, message, h.msg.SceneRestaurant, prompts.NihongoSceneMockRestaurant)
	case ButtonNihongoSceneMockClothes:
		h.startThread(ctx, log, message, h.msg.SceneClothesShop, prompts.NihongoSceneMockClothes)
	case ButtonNihongoSceneMockStreet:
		h.startThread(ctx, log, message, h.msg.SceneStreet, prompts.NihongoSceneMockStreet)
	case ButtonNihongoSceneMockSmallTalk:
		h.startThread(ctx, log, message, h.msg.SceneSmallTalk, prompts.NihongoSceneMockSmallTalk)
	case ButtonNihongoSceneMockGoBack:
		h.showNihongoMenu(ctx, log, message, true)
	default:
		model, ok := settingsButtons[query.Data]
		if !ok {
			log.Warn("Unknown callback data")
			answer = h.msg.InvalidAction
			return
		}
		if err := h.threads.SetModel(message.Chat.ID, model); err != nil {
			log.Error("Failed to store model setting", "error", err)
			answer = h.msg.AskFailed
			return
		}
		text := fmt.Sprintf(h.msg.ModelSelected, model)
		if _, err := h.sender.Edit(ctx, message.Chat.ID, message.MessageID, text, nil); err != nil {
			log.Error("Failed to confirm model setting", "error", err)
		}
	}
}
