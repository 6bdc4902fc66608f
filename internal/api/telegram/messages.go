package telegram

import (
	"fmt"
	"strings"

	"crop-doctor/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я помогу распознать болезни растений по фотографии листа.

📸 Отправьте мне фото, и я покажу найденные поражения.

📋 Команды:
/check — начать проверку растения
/languages — доступные языки
/lang <код> — язык названий болезней
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото листа
2️⃣ Бот проанализирует изображение
3️⃣ Вы получите диагноз и фото с отмеченными поражениями

💡 Рекомендации:
• Снимайте при дневном свете
• Лист должен занимать большую часть кадра
• Фото должно быть чётким

📋 Команды:
/check — начать проверку
/lang <код> — перевод диагноза, /lang off — без перевода
/cancel — отменить операцию`

	msgAwaitingPhoto       = "📸 Отправьте фото растения для проверки."
	msgCancelled           = "❌ Операция отменена. Отправьте /check для новой проверки."
	msgSendPhoto           = "📸 Пожалуйста, отправьте фото растения."
	msgUnknownCommand      = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing          = "⏳ Обрабатываю изображение..."
	msgHealthy             = "✅ Признаки болезней не обнаружены."
	msgProcessingError     = "⚠️ Не удалось обработать изображение. Попробуйте сделать другое фото."
	msgModelUnavailable    = "🛠 Модель распознавания сейчас недоступна. Попробуйте позже."
	msgInvalidPhoto        = "⚠️ Не удалось прочитать изображение. Отправьте фото в формате JPEG или PNG."
	msgUnsupportedLanguage = "❓ Язык %q не поддерживается. Список: /languages"
	msgTranslationFallback = "⚠️ Перевод недоступен, показано исходное название."
	msgAnnotationFailed    = "⚠️ Не удалось подготовить изображение с разметкой."
)

// maxCaptionFindings сколько находок перечислять в подписи
const maxCaptionFindings = 10

// FormatCaption текст ответа с диагнозом
func FormatCaption(d *entity.Diagnosis) string {
	var sb strings.Builder

	if d.PrimaryLabel == nil {
		sb.WriteString(msgHealthy)
	} else {
		name := *d.PrimaryLabel
		if d.LocalizedLabel != nil && *d.LocalizedLabel != name {
			name = fmt.Sprintf("%s (%s)", *d.LocalizedLabel, *d.PrimaryLabel)
		}
		fmt.Fprintf(&sb, "🌿 Диагноз: %s — %s", name, percent(*d.PrimaryConfidence))

		if len(d.Predictions) > 1 {
			sb.WriteString("\n\nВсе находки:")
			for i, p := range d.Predictions {
				if i == maxCaptionFindings {
					fmt.Fprintf(&sb, "\n… и ещё %d", len(d.Predictions)-i)
					break
				}
				label := p.Label
				if p.LocalizedLabel != "" {
					label = p.LocalizedLabel
				}
				fmt.Fprintf(&sb, "\n• %s — %s", label, percent(p.Confidence))
			}
		}
	}

	if d.TranslationFallback {
		sb.WriteString("\n\n" + msgTranslationFallback)
	}
	if d.AnnotationFailed {
		sb.WriteString("\n\n" + msgAnnotationFailed)
	}
	return sb.String()
}

// ErrorText сообщение пользователю по виду ошибки
func ErrorText(err error) string {
	switch entity.KindOf(err) {
	case entity.KindModelUnavailable:
		return msgModelUnavailable
	case entity.KindInvalidInput:
		return msgInvalidPhoto
	default:
		return msgProcessingError
	}
}

// LanguagesText список языков; текущий отмечен галочкой
func LanguagesText(langs []entity.Language, current string) string {
	var sb strings.Builder
	sb.WriteString("🌐 Доступные языки:\n")
	for _, l := range langs {
		mark := "  "
		if l.Code == current {
			mark = "✔ "
		}
		fmt.Fprintf(&sb, "\n%s%s — %s", mark, l.Code, l.DisplayName)
	}
	sb.WriteString("\n\nВыбор: /lang <код>")
	return sb.String()
}

// CurrentLanguageText сообщение о выбранном языке
func CurrentLanguageText(langs *entity.LanguageSet, code string) string {
	if code == "" {
		return "🌐 Перевод выключен, названия показываются как есть."
	}
	if l, ok := langs.Lookup(code); ok {
		return fmt.Sprintf("🌐 Язык названий: %s (%s)", l.DisplayName, l.Code)
	}
	return fmt.Sprintf("🌐 Язык названий: %s", code)
}

func percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
