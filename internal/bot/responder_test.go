package bot

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func commandInteraction(name string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:   "1",
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{Name: name},
		},
	}
}

func embedTitle(t *testing.T, response *discordgo.InteractionResponse) string {
	t.Helper()

	if response == nil || response.Data == nil || len(response.Data.Embeds) == 0 {
		t.Fatal("expected an embed response")
	}
	return response.Data.Embeds[0].Title
}

func TestDiscordResponder_RejectsSecondResponse(t *testing.T) {
	r := NewDiscordResponder(nil, &discordgo.Interaction{ID: "1"})
	r.responded = true

	err := r.Respond(&discordgo.InteractionResponse{})
	if !errors.Is(err, ErrAlreadyResponded) {
		t.Errorf("expected ErrAlreadyResponded, got %v", err)
	}
	if !r.Responded() {
		t.Error("expected responder to stay responded")
	}
}

func TestMockResponder_RecordsEveryResponse(t *testing.T) {
	r := &MockResponder{}
	if r.Responded() {
		t.Error("expected no response yet")
	}

	first := &discordgo.InteractionResponse{}
	second := &discordgo.InteractionResponse{}
	_ = r.Respond(first)
	_ = r.Respond(second)

	if len(r.Responses) != 2 || r.LastResponse != second {
		t.Errorf("expected both responses recorded, got %d", len(r.Responses))
	}
	if !r.Responded() {
		t.Error("expected responded")
	}

	failing := &MockResponder{Err: errors.New("boom")}
	_ = failing.Respond(first)
	if failing.Responded() {
		t.Error("expected a failed response not to count")
	}
}

func TestBot_Dispatch_ErrorBeforeResponding(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "test-token"})
	b.handlers["ping"] = func(*discordgo.Session, *discordgo.InteractionCreate, Responder) error {
		return errors.New("lookup failed")
	}

	r := &MockResponder{}
	b.dispatch(nil, commandInteraction("ping"), r)

	if len(r.Responses) != 1 {
		t.Fatalf("expected 1 response, got %d", len(r.Responses))
	}
	if got := embedTitle(t, r.LastResponse); got != "Error" {
		t.Errorf("expected error embed, got %q", got)
	}
}

func TestBot_Dispatch_ErrorAfterResponding(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "test-token"})
	answer := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{Title: "Queued"}},
		},
	}
	b.handlers["play"] = func(_ *discordgo.Session, _ *discordgo.InteractionCreate, r Responder) error {
		if err := r.Respond(answer); err != nil {
			return err
		}
		return errors.New("notification failed")
	}

	r := &MockResponder{}
	b.dispatch(nil, commandInteraction("play"), r)

	if len(r.Responses) != 1 {
		t.Fatalf("expected only the handler's response, got %d", len(r.Responses))
	}
	if got := embedTitle(t, r.LastResponse); got != "Queued" {
		t.Errorf("expected handler's embed, got %q", got)
	}
}

func TestBot_Dispatch_UnknownCommand(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "test-token"})

	r := &MockResponder{}
	b.dispatch(nil, commandInteraction("missing"), r)

	if got := embedTitle(t, r.LastResponse); got != "Unknown Command" {
		t.Errorf("expected unknown command embed, got %q", got)
	}
}
