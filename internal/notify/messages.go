package notify

import "golang.org/x/text/language"

var supported = []language.Tag{
	language.English, // fallback
	language.Russian,
}

var matcher = language.NewMatcher(supported)

var successTexts = []string{
	"Your video is ready!",
	"Ваше видео готово!",
}

var failureTexts = []map[Reason]string{
	{
		ReasonExpired:     "Sorry, your video request took too long and was cancelled. Tokens were not charged for the result.",
		ReasonRejected:    "Sorry, the model could not process this request. Try rephrasing the prompt.",
		ReasonExhausted:   "Sorry, the video could not be finished in time. Please try again later.",
		ReasonUnavailable: "Sorry, the video service is temporarily unavailable. Please try again later.",
	},
	{
		ReasonExpired:     "К сожалению, запрос на видео выполнялся слишком долго и был отменён. Токены за результат не списаны.",
		ReasonRejected:    "К сожалению, модель не смогла обработать этот запрос. Попробуйте переформулировать описание.",
		ReasonExhausted:   "К сожалению, видео не удалось закончить вовремя. Попробуйте ещё раз позже.",
		ReasonUnavailable: "К сожалению, сервис генерации видео временно недоступен. Попробуйте позже.",
	},
}

// FailureText returns the localized user-facing explanation for a failure
// reason. Unknown locales fall back to English.
func FailureText(locale string, reason Reason) string {
	idx := matchLocale(locale)
	if text, ok := failureTexts[idx][reason]; ok {
		return text
	}
	return failureTexts[idx][ReasonUnavailable]
}

// SuccessText returns the localized caption sent with a finished video.
func SuccessText(locale string) string {
	return successTexts[matchLocale(locale)]
}

func matchLocale(locale string) int {
	if locale == "" {
		return 0
	}
	_, idx := language.MatchStrings(matcher, locale)
	return idx
}
