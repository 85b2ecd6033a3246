package schema

import (
	"strings"
	"unicode"
)

// NormalizeModelID validates and normalizes a model identifier.
// Allowed characters: A-Z, a-z, 0-9, '.', '_', '-', '/', ':'.
func NormalizeModelID(model string) (ModelID, error) {
	trimmed := strings.TrimSpace(model)
	if trimmed == "" {
		return "", ErrInvalidModel
	}
	for _, r := range trimmed {
		if r == '.' || r == '_' || r == '-' || r == '/' || r == ':' {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		return "", ErrInvalidModel
	}
	return ModelID(trimmed), nil
}

// ParseCellKind validates a cell kind.
func ParseCellKind(value string) (CellKind, error) {
	switch CellKind(strings.ToLower(strings.TrimSpace(value))) {
	case CellKindCode:
		return CellKindCode, nil
	case CellKindMarkdown:
		return CellKindMarkdown, nil
	default:
		return "", ErrInvalidCellKind
	}
}

// ParseLanguage validates a language tag. Empty input yields LanguageAuto.
func ParseLanguage(value string) (Language, error) {
	trimmed := Language(strings.ToLower(strings.TrimSpace(value)))
	if trimmed == "" {
		return LanguageAuto, nil
	}
	for _, lang := range Languages {
		if lang == trimmed {
			return lang, nil
		}
	}
	return "", ErrInvalidLanguage
}

// ParseSimulationMode validates a simulation mode. Empty input yields static.
func ParseSimulationMode(value string) (SimulationMode, error) {
	switch SimulationMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", SimulationModeStatic:
		return SimulationModeStatic, nil
	case SimulationModeSafeRL:
		return SimulationModeSafeRL, nil
	default:
		return "", ErrInvalidMode
	}
}

// ParseChatMode normalizes a chat mode; unknown values fall back to general.
func ParseChatMode(value string) ChatMode {
	switch ChatMode(strings.ToLower(strings.TrimSpace(value))) {
	case ChatModeCode:
		return ChatModeCode
	case ChatModeResearch:
		return ChatModeResearch
	default:
		return ChatModeGeneral
	}
}

// LanguageForExtension maps a file extension (with or without dot) to a language.
func LanguageForExtension(ext string) Language {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "py":
		return LanguagePython
	case "cpp", "cc", "cxx", "hpp":
		return LanguageCPP
	case "qasm":
		return LanguageQASM
	case "sh", "bash":
		return LanguageBash
	default:
		return LanguageAuto
	}
}
