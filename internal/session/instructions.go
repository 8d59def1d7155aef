package session

import "strings"

// systemInstruction builds the session-scoped guidance for the remote
// assistant, embedding the immutable recipe context.
func systemInstruction(recipeContext string) string {
	var b strings.Builder
	b.WriteString("You are a hands-free cooking assistant guiding the user through a recipe in real time. ")
	b.WriteString("Walk them through the steps one at a time and wait for them to be ready before moving on. ")
	b.WriteString("Watch the camera frames for visual hazards such as smoke, burning, boiling over or unsafe knife handling, and warn immediately. ")
	b.WriteString("Answer questions naturally as they come up. ")
	b.WriteString("Keep track of cooking times out loud so nothing is forgotten on the stove. ")
	b.WriteString("Be concise; the user's hands are busy.")
	if recipeContext != "" {
		b.WriteString("\n\nThe user is cooking the following recipe:\n")
		b.WriteString(recipeContext)
	}
	return b.String()
}
