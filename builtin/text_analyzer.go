package builtin

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/tool"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// NewTextAnalyzerTool builds the text analysis tool with four analysis
// modes: basic, detailed, sentiment and keywords.
func NewTextAnalyzerTool() (tool.Tool, tool.Metadata, error) {
	md := tool.Metadata{
		Description: "Analyze text: statistics, sentiment and keywords",
		Version:     "1.5.0",
		Author:      "NLP Team",
		Category:    "text",
	}

	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "Text to analyze",
			},
			"analysis_type": map[string]any{
				"type":        "string",
				"description": "Analysis mode, default basic",
				"enum":        []any{"basic", "detailed", "sentiment", "keywords"},
			},
		},
		"required": []string{"text"},
	}

	t := tool.NewFunctionTool("text_analyzer", md.Description, schema,
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			text, _ := args["text"].(string)
			if strings.TrimSpace(text) == "" {
				return "ERROR: provide a text to analyze", nil
			}

			switch stringArg(args, "analysis_type", "basic") {
			case "basic":
				return basicAnalysis(text), nil
			case "detailed":
				return detailedAnalysis(text), nil
			case "sentiment":
				return sentimentAnalysis(text), nil
			case "keywords":
				return keywordAnalysis(text), nil
			default:
				return "ERROR: invalid analysis type, use: basic, detailed, sentiment, keywords", nil
			}
		})

	return t, md, nil
}

func basicAnalysis(text string) string {
	words := strings.Fields(text)

	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	paragraphs := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphs++
		}
	}

	readingMinutes := len(words) / 200
	if readingMinutes < 1 {
		readingMinutes = 1
	}

	return fmt.Sprintf(
		"BASIC ANALYSIS:\n  Characters: %d\n  Characters (no spaces): %d\n"+
			"  Words: %d\n  Sentences: %d\n  Paragraphs: %d\n  Reading time: ~%d min",
		len([]rune(text)),
		len([]rune(strings.ReplaceAll(text, " ", ""))),
		len(words), sentences, paragraphs, readingMinutes,
	)
}

func detailedAnalysis(text string) string {
	var letters, digits, spaces, punctuation int
	for _, c := range text {
		switch {
		case unicode.IsLetter(c):
			letters++
		case unicode.IsDigit(c):
			digits++
		case unicode.IsSpace(c):
			spaces++
		case strings.ContainsRune(`.,!?;:"()[]{}`, c):
			punctuation++
		}
	}

	words := strings.Fields(text)

	var totalLen, longest int
	freq := make(map[string]int)
	for _, w := range words {
		clean := strings.Trim(strings.ToLower(w), `.,!?;:"()[]{}`)
		totalLen += len([]rune(clean))
		if l := len([]rune(clean)); l > longest {
			longest = l
		}
		if clean != "" {
			freq[clean]++
		}
	}

	avgLen := 0.0
	if len(words) > 0 {
		avgLen = float64(totalLen) / float64(len(words))
	}

	top := topWords(freq, 3)
	parts := make([]string, len(top))
	for i, w := range top {
		parts[i] = fmt.Sprintf("%s(%d)", w, freq[w])
	}

	return fmt.Sprintf(
		"DETAILED ANALYSIS:\n  Letters: %d\n  Digits: %d\n  Spaces: %d\n  Punctuation: %d\n"+
			"  Words: %d\n  Avg word length: %.1f\n  Longest word: %d chars\n  Most frequent: %s",
		letters, digits, spaces, punctuation,
		len(words), avgLen, longest, strings.Join(parts, ", "),
	)
}

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "wonderful": true,
	"fantastic": true, "amazing": true, "incredible": true, "perfect": true,
	"love": true, "loved": true, "happy": true, "glad": true, "satisfied": true,
	"positive": true, "success": true, "win": true, "awesome": true, "nice": true,
	"best": true, "enjoy": true, "enjoyed": true, "brilliant": true,
}

var negativeWords = map[string]bool{
	"bad": true, "awful": true, "horrible": true, "terrible": true,
	"hate": true, "hated": true, "sad": true, "upset": true, "frustrated": true,
	"negative": true, "failure": true, "lose": true, "lost": true,
	"problem": true, "error": true, "difficult": true, "impossible": true,
	"worst": true, "poor": true, "disappointing": true, "disappointed": true,
}

func sentimentAnalysis(text string) string {
	words := cleanWords(text)

	var positive, negative int
	for _, w := range words {
		if positiveWords[w] {
			positive++
		}
		if negativeWords[w] {
			negative++
		}
	}

	sentiment := "neutral"
	confidence := 50.0

	switch {
	case positive > negative:
		sentiment = "positive"
		confidence = float64(positive)/float64(len(words))*100 + 60
	case negative > positive:
		sentiment = "negative"
		confidence = float64(negative)/float64(len(words))*100 + 60
	}
	if confidence > 90 {
		confidence = 90
	}

	return fmt.Sprintf(
		"SENTIMENT ANALYSIS:\n  Sentiment: %s\n  Confidence: %.1f%%\n"+
			"  Positive words: %d\n  Negative words: %d\n  Words analyzed: %d",
		sentiment, confidence, positive, negative, len(words),
	)
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true,
	"with": true, "by": true, "from": true, "as": true, "is": true, "are": true,
	"was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "not": true,
	"this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "they": true, "them": true, "their": true, "he": true,
	"she": true, "his": true, "her": true, "you": true, "your": true, "we": true,
	"our": true, "i": true, "my": true, "me": true, "so": true, "very": true,
	"just": true, "more": true, "most": true, "some": true, "any": true,
}

func keywordAnalysis(text string) string {
	words := cleanWords(text)

	filtered := make([]string, 0, len(words))
	freq := make(map[string]int)
	for _, w := range words {
		if len(w) > 2 && !stopWords[w] {
			filtered = append(filtered, w)
			freq[w]++
		}
	}

	var keywords []string
	var uniqueImportant []string
	for _, w := range topWords(freq, len(freq)) {
		if freq[w] > 1 {
			keywords = append(keywords, w)
		} else if len(w) > 4 && len(uniqueImportant) < 10 {
			uniqueImportant = append(uniqueImportant, w)
		}
	}

	var sb strings.Builder
	sb.WriteString("KEYWORD ANALYSIS:\n")

	if len(keywords) > 0 {
		sb.WriteString("  Key terms:\n")
		limit := len(keywords)
		if limit > 8 {
			limit = 8
		}
		for _, w := range keywords[:limit] {
			fmt.Fprintf(&sb, "    - %s (%dx)\n", w, freq[w])
		}
	}

	if len(uniqueImportant) > 0 {
		limit := len(uniqueImportant)
		if limit > 5 {
			limit = 5
		}
		fmt.Fprintf(&sb, "  Unique notable terms: %s\n", strings.Join(uniqueImportant[:limit], ", "))
	}

	fmt.Fprintf(&sb, "  Distinct vocabulary: %d words\n", len(freq))
	fmt.Fprintf(&sb, "  Keyword density: %d/%d", len(keywords), len(filtered))

	return sb.String()
}

func cleanWords(text string) []string {
	raw := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		if clean := strings.Trim(w, `.,!?;:"()[]{}`); clean != "" {
			out = append(out, clean)
		}
	}

	return out
}

// topWords returns up to n words sorted by descending frequency, ties broken
// alphabetically for deterministic output.
func topWords(freq map[string]int, n int) []string {
	words := make([]string, 0, len(freq))
	for w := range freq {
		words = append(words, w)
	}

	sort.Slice(words, func(i, j int) bool {
		if freq[words[i]] != freq[words[j]] {
			return freq[words[i]] > freq[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > n {
		words = words[:n]
	}

	return words
}
