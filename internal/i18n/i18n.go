// Package i18n holds the localized bot texts.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

// Messages contains localized strings for the bot.
type Messages struct {
	Greeting          string `yaml:"greeting"`
	AvailableCommands string `yaml:"available_commands"`
	CommandAsk        string `yaml:"command_ask"`
	CommandNihongo    string `yaml:"command_nihongo"`
	CommandSettings   string `yaml:"command_settings"`
	CommandHelp       string `yaml:"command_help"`
	Typing            string `yaml:"typing"`
	AskPrompt         string `yaml:"ask_prompt"`
	AskFailed         string `yaml:"ask_failed"`
	NihongoMenu       string `yaml:"nihongo_menu"`
	NihongoTranslate  string `yaml:"nihongo_translate"`
	NihongoExplain    string `yaml:"nihongo_explain"`
	SceneMenu         string `yaml:"scene_menu"`
	SceneCafe         string `yaml:"scene_cafe"`
	SceneRestaurant   string `yaml:"scene_restaurant"`
	SceneClothesShop  string `yaml:"scene_clothes_shop"`
	SceneStreet       string `yaml:"scene_street"`
	SceneSmallTalk    string `yaml:"scene_small_talk"`
	SettingsMenu      string `yaml:"settings_menu"`
	ModelSelected     string `yaml:"model_selected"`
	InvalidAction     string `yaml:"invalid_action"`
	VoiceDisabled     string `yaml:"voice_disabled"`
	TranscriptionFail string `yaml:"transcription_failed"`

	// Buttons are inline keyboard labels.
	Buttons Buttons `yaml:"buttons"`
}

// Buttons contains inline keyboard labels.
type Buttons struct {
	Translate   string `yaml:"translate"`
	Explain     string `yaml:"explain"`
	SceneMock   string `yaml:"scene_mock"`
	Restaurant  string `yaml:"restaurant"`
	Cafe        string `yaml:"cafe"`
	ClothesShop string `yaml:"clothes_shop"`
	Street      string `yaml:"street"`
	SmallTalk   string `yaml:"small_talk"`
	GoBack      string `yaml:"go_back"`
}

// Bundle pairs a language with its messages.
type Bundle struct {
	Lang     string
	Messages Messages
}

//go:embed *.yaml
var files embed.FS

const fallbackLang = "en"

// Load returns the messages for lang. Keys missing from a translation keep
// their English text; unknown languages load English.
func Load(lang string) (Bundle, error) {
	base, err := decode(fallbackLang, Messages{})
	if err != nil {
		return Bundle{}, err
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang == "" || lang == fallbackLang {
		return Bundle{Lang: fallbackLang, Messages: base}, nil
	}
	if _, err := fs.Stat(files, lang+".yaml"); err != nil {
		return Bundle{Lang: fallbackLang, Messages: base}, nil
	}
	messages, err := decode(lang, base)
	if err != nil {
		return Bundle{}, err
	}
	return Bundle{Lang: lang, Messages: messages}, nil
}

// decode overlays the catalogue of lang onto base.
func decode(lang string, base Messages) (Messages, error) {
	data, err := files.ReadFile(lang + ".yaml")
	if err != nil {
		return Messages{}, fmt.Errorf("read %s messages: %w", lang, err)
	}
	if err := yaml.Unmarshal(data, &base); err != nil {
		return Messages{}, fmt.Errorf("parse %s messages: %w", lang, err)
	}
	return base, nil
}
