package texttransform

import "fmt"

func sprintfSummarize(characterLimit int) string {
	return fmt.Sprintf("Summarize the following text in at most %d characters:\n", characterLimit)
}

func sprintfTranslate(targetLang string) string {
	return fmt.Sprintf("Translate the following text to %s, preserving any HTML markup:\n", targetLang)
}

func sprintfSummarizeAndTranslate(characterLimit int, targetLang string) string {
	return fmt.Sprintf("Summarize the following text in at most %d characters, then translate the summary to %s:\n", characterLimit, targetLang)
}
