package analysis

import (
	"fmt"
	"strings"
)

const jsonArrayRules = `Output rules:
- Respond with a raw JSON array only. No markdown code fences, no commentary before or after.
- Do not use emoji anywhere in the output.
- Use the exact field names given. Omit nothing.`

const jsonObjectRules = `Output rules:
- Respond with a raw JSON object only. No markdown code fences, no commentary before or after.
- Do not use emoji anywhere in the output.
- Use the exact field names given. Omit nothing.`

func narrativePrompt(date, transcript string) string {
	return fmt.Sprintf(`You are writing the daily recap for a group chat. Below is the transcript for %s.

Write a lively recap in 3-5 short paragraphs: what the group talked about, how the mood shifted over the day, and anything memorable. Refer to people by the names used in the transcript. Plain text only, no markdown, no emoji.

Transcript:
%s`, date, transcript)
}

func topicsPrompt(transcript string, maxTopics int) string {
	return fmt.Sprintf(`Below is a group chat transcript for one day. Identify the %d most discussed topics.

For each topic return an object with:
- "topic": a short title, at most 30 characters
- "contributors": names of up to 5 people who drove the discussion
- "detail": a 1-2 sentence summary, at most 200 characters

%s

Transcript:
%s`, maxTopics, jsonArrayRules, transcript)
}

func titlesPrompt(userBlock string, maxTitle, maxReason int) string {
	return fmt.Sprintf(`Below are today's most active chat members with samples of what they wrote. Give each of them a playful honorary title based on how they talked today.

For each member return an object with:
- "name": the member's name exactly as given
- "title": a playful honorary title, at most %d characters
- "personality": your best-guess MBTI code for them, e.g. "INTJ"
- "reason": why this title fits, at most %d characters

%s

Members:
%s`, maxTitle, maxReason, jsonArrayRules, userBlock)
}

func quotesPrompt(lines string) string {
	return fmt.Sprintf(`Below are candidate lines from today's group chat. Pick the 3-5 funniest or most striking quotes. Prefer lines that stand on their own without context.

For each quote return an object with:
- "content": the quote verbatim
- "sender": the name of who said it
- "reason": one short sentence on why it made the cut

%s

Candidate lines:
%s`, jsonArrayRules, lines)
}

func rankingsPrompt(userBlock string) string {
	return fmt.Sprintf(`Below are today's most active chat members with samples of what they wrote. Rate each one on the "chaos index": how much delightful mayhem they brought to the chat today.

Grades, highest to lowest: S (certified agent of chaos), A, B, C, D (model citizen).
Scores run 0-150 and must match the grade: S is 120-150, A is 90-119, B is 60-89, C is 30-59, D is 0-29.

For each member return an object with:
- "name": the member's name exactly as given
- "rank": one of "S", "A", "B", "C", "D"
- "score": an integer 0-150 consistent with the grade
- "comment": a playful one-liner justifying the grade, at most 60 characters

%s

Members:
%s`, jsonArrayRules, userBlock)
}

func userSummaryPrompt(name, date, transcript string) string {
	return fmt.Sprintf(`Below is everything %s wrote in the group chat on %s, with timestamps.

Write a short, friendly recap of their day in the chat: what they talked about, when they were active, and their overall vibe. 2-3 short paragraphs, plain text, no markdown, no emoji.

Messages:
%s`, name, date, transcript)
}

func userProfilePrompt(name, statsBlock, transcript string) string {
	return fmt.Sprintf(`You are profiling one group chat member, %s, based on a single day of messages.

Statistics:
%s

Return a JSON object with:
- "tags": 1 to 3 short personality tags, each at most 18 characters
- "active_time": one phrase describing when they were active, e.g. "late-night regular"
- "fun_score": integer 0-100, how entertaining they were
- "fun_comment": one short sentence backing the fun score
- "topic_leadership": integer 0-100, how much they steered conversations
- "topic_comment": one short sentence backing the leadership score
- "rank_title": a playful one-off title for their day
- "rank_desc": one short sentence expanding the title
- "mood": exactly one of "positive", "neutral", "negative"
- "mood_score": integer 0-100, overall positivity
- "mood_reason": one short sentence backing the mood call

%s

Messages:
%s`, name, statsBlock, jsonObjectRules, transcript)
}

func userPortraitPrompt(name, transcript string, maxTitle, maxReason int) string {
	return fmt.Sprintf(`Below is what %s wrote in the group chat today. Give them a playful honorary title for the day.

Return a JSON object with:
- "name": %q
- "title": a playful honorary title, at most %d characters
- "personality": your best-guess MBTI code, e.g. "ENFP"
- "reason": why the title fits, at most %d characters

%s

Messages:
%s`, name, name, maxTitle, maxReason, jsonObjectRules, transcript)
}

func userRatingPrompt(name, transcript string) string {
	return fmt.Sprintf(`Below is what %s wrote in the group chat today. Rate them on the "chaos index": how much delightful mayhem they brought today.

Grades, highest to lowest: S (certified agent of chaos), A, B, C, D (model citizen).
Scores run 0-150 and must match the grade: S is 120-150, A is 90-119, B is 60-89, C is 30-59, D is 0-29.

Return a JSON object with:
- "name": %q
- "rank": one of "S", "A", "B", "C", "D"
- "score": an integer 0-150 consistent with the grade
- "comment": a playful one-liner justifying the grade, at most 60 characters

%s

Messages:
%s`, name, name, jsonObjectRules, transcript)
}

func userQuotesPrompt(name, lines string) string {
	return fmt.Sprintf(`Below are candidate lines %s wrote in the group chat today. Pick their 1-3 best quotes: the funniest or most striking lines that stand on their own.

For each quote return an object with:
- "content": the quote verbatim
- "sender": %q
- "reason": one short sentence on why it made the cut

%s

Candidate lines:
%s`, name, name, jsonArrayRules, lines)
}

// userBlock renders "name (N messages):" sections with indented samples, the
// shared input shape for titles and rankings prompts.
func buildUserBlock(users []struct {
	Name     string
	Messages int
	Samples  []string
}) string {
	var sb strings.Builder
	for _, u := range users {
		sb.WriteString(fmt.Sprintf("%s (%d messages):\n", u.Name, u.Messages))
		for _, sample := range u.Samples {
			sb.WriteString("  - ")
			sb.WriteString(sample)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
