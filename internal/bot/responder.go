package bot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// ErrAlreadyResponded is returned when an interaction is answered twice.
// Discord accepts exactly one initial response per interaction.
var ErrAlreadyResponded = errors.New("interaction already responded to")

// Responder answers a single Discord interaction.
type Responder interface {
	// Respond sends the initial response to the interaction.
	Respond(response *discordgo.InteractionResponse) error

	// Responded reports whether a response has been sent successfully.
	Responded() bool
}

// DiscordResponder implements Responder using a live Discord session.
type DiscordResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction

	mu        sync.Mutex
	responded bool
}

// NewDiscordResponder creates a new DiscordResponder.
func NewDiscordResponder(s *discordgo.Session, i *discordgo.Interaction) *DiscordResponder {
	return &DiscordResponder{
		session:     s,
		interaction: i,
	}
}

// Respond sends the response via the Discord API. A failed attempt may be
// retried; a successful one may not.
func (r *DiscordResponder) Respond(response *discordgo.InteractionResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.responded {
		return ErrAlreadyResponded
	}
	if err := r.session.InteractionRespond(r.interaction, response); err != nil {
		return fmt.Errorf("failed to respond to interaction %s: %w", r.interaction.ID, err)
	}
	r.responded = true
	return nil
}

// Responded reports whether Respond has succeeded.
func (r *DiscordResponder) Responded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.responded
}

// MockResponder is a test double for Responder. Every response is recorded,
// and Err, if set, fails each call.
type MockResponder struct {
	Responses    []*discordgo.InteractionResponse
	LastResponse *discordgo.InteractionResponse
	Err          error
}

// Respond records the response.
func (m *MockResponder) Respond(response *discordgo.InteractionResponse) error {
	m.Responses = append(m.Responses, response)
	m.LastResponse = response
	return m.Err
}

// Responded reports whether a call has succeeded.
func (m *MockResponder) Responded() bool {
	return m.Err == nil && len(m.Responses) > 0
}
