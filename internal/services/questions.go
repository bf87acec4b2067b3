package services

import (
	"regexp"
	"strings"

	"github.com/voxnote/apiserver/types"
)

// Topic candidates are capitalized words or words of five letters or more.
var topicWordPattern = regexp.MustCompile(`\b[A-Z][a-z]+\b|\b\w{5,}\b`)

const (
	minTranscriptLen  = 10
	maxTopicWords     = 5
	maxTemplateWords  = 3
	maxQuestions      = 5
	summaryWordCount  = 50
	quizQuestionCount = 4
)

var questionTemplates = []string{
	"What are the main points discussed about %s?",
	"Can you explain more about %s?",
	"What is the significance of %s?",
	"How does %s relate to the overall topic?",
	"What details were mentioned regarding %s?",
}

const fallbackQuestion = "What is the main topic of this transcription?"

// GenerateQuestions derives free-form review questions from a transcript.
// It is purely lexical and deterministic: the same text always produces
// the same questions, in the same order.
func GenerateQuestions(text string) []string {
	if len(strings.TrimSpace(text)) < minTranscriptLen {
		return []string{}
	}

	questions := make([]string, 0, maxQuestions)
	textLower := strings.ToLower(text)

	words := topicWords(text)
	for i, word := range words {
		if i >= maxTemplateWords || i >= len(questionTemplates) {
			break
		}
		questions = append(questions, strings.Replace(questionTemplates[i], "%s", strings.ToLower(word), 1))
	}

	if strings.Contains(textLower, "meeting") || strings.Contains(textLower, "discuss") {
		questions = append(questions, "What were the key decisions made?")
	}
	if strings.Contains(textLower, "project") || strings.Contains(textLower, "plan") {
		questions = append(questions, "What are the next steps?")
	}
	if len(strings.Fields(text)) > summaryWordCount {
		questions = append(questions, "Can you summarize the main ideas?")
	}

	if len(questions) == 0 {
		return []string{fallbackQuestion}
	}
	if len(questions) > maxQuestions {
		questions = questions[:maxQuestions]
	}
	return questions
}

// topicWords extracts candidate topic words, deduplicated in order of
// first appearance and capped at maxTopicWords.
func topicWords(text string) []string {
	matches := topicWordPattern.FindAllString(text, -1)

	seen := make(map[string]struct{}, len(matches))
	words := make([]string, 0, maxTopicWords)
	for _, match := range matches {
		if _, ok := seen[match]; ok {
			continue
		}
		seen[match] = struct{}{}
		words = append(words, match)
		if len(words) == maxTopicWords {
			break
		}
	}
	return words
}

// Fixed distractors for generated multiple-choice options.
var quizDistractors = []string{"weather", "holidays", "cooking", "football"}

// Fixed questions used to pad a quiz when the transcript yields too few
// topic words.
var quizFallback = []types.ChoiceQuestion{
	{
		Question: "What kind of content was in this recording?",
		Options:  []string{"Spoken audio", "Instrumental music", "Silence", "Static noise"},
		Answer:   0,
	},
	{
		Question: "How was this transcript produced?",
		Options:  []string{"Typed by hand", "Speech recognition", "Copied from a document", "Machine translation"},
		Answer:   1,
	},
	{
		Question: "What is the best way to check a transcript for accuracy?",
		Options:  []string{"Guess", "Skip it", "Compare it against the recording", "Delete it"},
		Answer:   2,
	},
	{
		Question: "Where is this transcription stored?",
		Options:  []string{"Nowhere", "On paper", "In an email", "In your history"},
		Answer:   3,
	},
}

// GenerateQuiz derives a fixed-size multiple-choice quiz from a
// transcript. It always returns exactly four questions for usable text,
// padding from a fixed list when the transcript yields too few topics,
// and is deterministic for a given input.
func GenerateQuiz(text string) []types.ChoiceQuestion {
	if len(strings.TrimSpace(text)) < minTranscriptLen {
		return []types.ChoiceQuestion{}
	}

	questions := make([]types.ChoiceQuestion, 0, quizQuestionCount)
	for i, word := range topicWords(text) {
		if i >= quizQuestionCount {
			break
		}
		questions = append(questions, choiceForWord(word))
	}

	for i := 0; len(questions) < quizQuestionCount; i++ {
		questions = append(questions, quizFallback[i])
	}
	return questions
}

// choiceForWord builds a recall question around one topic word. The
// correct option's position depends only on the word, keeping output
// stable across calls.
func choiceForWord(word string) types.ChoiceQuestion {
	lower := strings.ToLower(word)
	answer := len(lower) % quizQuestionCount

	// The topic word itself may appear in the distractor list.
	distractors := make([]string, 0, quizQuestionCount-1)
	for _, d := range quizDistractors {
		if d == lower {
			continue
		}
		distractors = append(distractors, d)
		if len(distractors) == quizQuestionCount-1 {
			break
		}
	}

	options := make([]string, 0, quizQuestionCount)
	next := 0
	for i := 0; i < quizQuestionCount; i++ {
		if i == answer {
			options = append(options, lower)
			continue
		}
		options = append(options, distractors[next])
		next++
	}

	return types.ChoiceQuestion{
		Question: "Which of these was mentioned in the recording?",
		Options:  options,
		Answer:   answer,
	}
}
