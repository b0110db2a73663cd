package questions

import (
	"context"
	"math/rand/v2"
	"strings"

	"quiz-live/internal/game"
)

// Static serves a fixed built-in catalogue, shuffled on every fetch.
type Static struct {
	questions []game.Question
}

func NewStatic(questions []game.Question) *Static {
	if questions == nil {
		questions = defaultCatalogue()
	}
	return &Static{questions: questions}
}

func (s *Static) Name() string {
	return "static"
}

// Fetch filters by topic and difficulty when given; questions without a
// difficulty match any level.
func (s *Static) Fetch(ctx context.Context, topic, difficulty string, count int) ([]game.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	topic = strings.TrimSpace(topic)
	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	out := make([]game.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if topic != "" && !strings.EqualFold(q.Topic, topic) {
			continue
		}
		if difficulty != "" && q.Difficulty != "" && q.Difficulty != difficulty {
			continue
		}
		q.Options = append([]string(nil), q.Options...)
		out = append(out, q)
	}
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	out = uniquePrompts(out)
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out, nil
}

func defaultCatalogue() []game.Question {
	return []game.Question{
		{ID: "1", Prompt: "What is the capital of France?", Options: []string{"London", "Berlin", "Paris", "Madrid"}, CorrectOptionIndex: 2, Topic: "Geography", Explanation: "Paris has been the capital of France since the 12th century."},
		{ID: "2", Prompt: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Saturn"}, CorrectOptionIndex: 1, Topic: "Science", Explanation: "Mars appears red due to iron oxide on its surface."},
		{ID: "3", Prompt: "Who painted the Mona Lisa?", Options: []string{"Vincent van Gogh", "Pablo Picasso", "Leonardo da Vinci", "Michelangelo"}, CorrectOptionIndex: 2, Topic: "Art", Explanation: "Leonardo da Vinci painted the Mona Lisa between 1503 and 1519."},
		{ID: "4", Prompt: "What is the largest mammal in the world?", Options: []string{"African Elephant", "Blue Whale", "Giraffe", "Hippopotamus"}, CorrectOptionIndex: 1, Topic: "Nature", Explanation: "The blue whale can reach up to 100 feet in length and weigh 200 tons."},
		{ID: "5", Prompt: "Which programming language was created by Brendan Eich?", Options: []string{"Python", "Java", "JavaScript", "C++"}, CorrectOptionIndex: 2, Topic: "Technology", Explanation: "JavaScript was created by Brendan Eich in 1995 for Netscape."},
		{ID: "6", Prompt: "What is the smallest country in the world?", Options: []string{"Monaco", "Vatican City", "Liechtenstein", "San Marino"}, CorrectOptionIndex: 1, Topic: "Geography", Explanation: "Vatican City covers only 0.17 square miles."},
		{ID: "7", Prompt: "Which element has the chemical symbol \"Au\"?", Options: []string{"Silver", "Gold", "Aluminum", "Argon"}, CorrectOptionIndex: 1, Topic: "Science", Explanation: "Au comes from the Latin word \"aurum\" meaning gold."},
		{ID: "8", Prompt: "Who wrote \"Romeo and Juliet\"?", Options: []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"}, CorrectOptionIndex: 1, Topic: "Literature", Explanation: "William Shakespeare wrote Romeo and Juliet in the 1590s."},
		{ID: "9", Prompt: "What is the speed of light in a vacuum?", Options: []string{"300,000 km/s", "150,000 km/s", "450,000 km/s", "600,000 km/s"}, CorrectOptionIndex: 0, Topic: "Science", Explanation: "Light travels at approximately 299,792,458 meters per second in a vacuum."},
		{ID: "10", Prompt: "Which ocean is the largest?", Options: []string{"Atlantic", "Indian", "Arctic", "Pacific"}, CorrectOptionIndex: 3, Topic: "Geography", Explanation: "The Pacific Ocean covers more than 30% of Earth's surface."},
	}
}

// uniquePrompts keeps the first question per case-folded prompt so that
// truncation never spends the quota on duplicates.
func uniquePrompts(questions []game.Question) []game.Question {
	seen := make(map[string]struct{}, len(questions))
	out := questions[:0]
	for _, q := range questions {
		key := strings.ToLower(strings.TrimSpace(q.Prompt))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}
