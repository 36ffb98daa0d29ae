package service

import (
	"fmt"
	"strings"

	"mock-interviewer/internal/domain"
)

const openingPrompt = `You are an AI interviewer for Excel skills.
1. Start with a warm, short greeting.
2. Briefly explain the process (easy questions first, then harder ones).
3. Ask the FIRST EASY Excel question clearly.
Keep it natural and conversational. Plain text only.`

func renderTranscript(rec domain.InterviewRecord) string {
	lines := make([]string, 0, len(rec.History))
	for _, t := range rec.History {
		lines = append(lines, t.Role+": "+t.Content)
	}
	return strings.Join(lines, "\n")
}

func buildReplyPrompt(rec domain.InterviewRecord, kind ReplyKind) string {
	var task string
	switch kind {
	case ReplyNextQuestion:
		task = fmt.Sprintf("Acknowledge the answer or give light feedback without revealing the full correct answer, then ask the NEXT %s Excel interview question.", rec.Stage+1)
	case ReplyClarify:
		task = "The candidate asked you a question. Answer politely but briefly without giving away interview answers, then invite them to continue with the current question."
	default:
		task = "The interview is over. Acknowledge the last answer and give a short, professional closing message."
	}

	return fmt.Sprintf(`You are an AI Excel interviewer. Maintain a professional, supportive tone.

Transcript so far:
%s

%s
Plain text only.`, renderTranscript(rec), task)
}

func buildSummaryPrompt(rec domain.InterviewRecord) string {
	return fmt.Sprintf(`You are an interview evaluator. Here is the transcript of a mock Excel interview:

%s

Now create a performance summary in this exact plain-text format (no Markdown, no asterisks, no bullet dashes):

Performance Summary
Score: X/10
Strengths:
1. ...
2. ...
Areas to Improve:
1. ...
2. ...
Final Remark:
...`, renderTranscript(rec))
}
