package game

import (
	"math/rand"

	"github.com/kstonekuan/among-humans/internal/models"
)

// builtinPrompts is the always-available fallback question list. Prompt
// selection never blocks phase entry on the Generation Service: the
// reservoir is used first, and these cover every failure mode.
var builtinPrompts = []string{
	"What's the most overrated food and why?",
	"Describe your perfect lazy Sunday.",
	"What's a small thing that instantly improves your mood?",
	"If you could ban one minor inconvenience forever, what would it be?",
	"What's the worst advice you've ever received?",
	"What smell takes you straight back to childhood?",
	"What's a hill you're willing to die on?",
	"If animals could talk, which species would be the rudest?",
	"What's the most useless talent you have?",
	"What would you do with an extra hour every day?",
	"What's something everyone seems to love that you just don't get?",
	"What's the best purchase under twenty dollars you've ever made?",
	"If your life had a loading screen, what tip would it show?",
	"What's a food combination you swear by that others find weird?",
	"What's the first thing you'd do after winning the lottery?",
	"What habit did you pick up during a strange period of your life?",
	"What's the most memorable meal you've ever had?",
	"If you had to teach a class on one thing, what would it be?",
	"What's an instant deal-breaker in a roommate?",
	"What tiny sound do you find unreasonably satisfying?",
}

// fillerAnswers substitute for the AI when the Generation Service fails.
// The pick is deterministic in the prompt so retries stay consistent.
var fillerAnswers = []string{
	"honestly i can't decide, they all seem fine to me",
	"probably whatever everyone else said tbh",
	"hmm that's a tough one, maybe sleep?",
	"i'd say pizza, you can't go wrong with pizza",
	"no strong opinion here, i'm easy",
	"something boring probably, i'm not very creative",
	"whatever my friends are doing, i just tag along",
	"coffee. the answer is always coffee",
}

// FillerAnswer returns the deterministic fallback answer for a prompt
func FillerAnswer(prompt string) string {
	return fillerAnswers[len(prompt)%len(fillerAnswers)]
}

// selectPromptLocked picks the round's question: first from the pregenerated
// reservoir, then from the built-in list, avoiding repeats within the game
// where possible. Must be called with the room lock held.
func selectPromptLocked(room *models.Room) string {
	for len(room.PregeneratedPrompts) > 0 {
		prompt := room.PregeneratedPrompts[0]
		room.PregeneratedPrompts = room.PregeneratedPrompts[1:]
		if prompt == "" || room.UsedPrompts[prompt] {
			continue
		}
		room.UsedPrompts[prompt] = true
		return prompt
	}

	fresh := make([]string, 0, len(builtinPrompts))
	for _, p := range builtinPrompts {
		if !room.UsedPrompts[p] {
			fresh = append(fresh, p)
		}
	}
	if len(fresh) == 0 {
		// Every prompt used this game; repeats beat stalling.
		fresh = builtinPrompts
	}
	prompt := fresh[rand.Intn(len(fresh))]
	room.UsedPrompts[prompt] = true
	return prompt
}
