package storage

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"hejchat/model"
)

func conversation(question string) []model.Message {
	return []model.Message{
		{Role: model.RoleUser, Content: model.TextContent(question)},
		{Role: model.RoleAssistant, Content: model.TextContent("answer")},
	}
}

func TestArchiveChatEmptyConversation(t *testing.T) {
	store := openTestStore(t)

	_, ok, err := store.ArchiveChat(nil)
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if ok {
		t.Error("empty conversation was archived")
	}
}

func TestArchiveMostRecentFirst(t *testing.T) {
	store := openTestStore(t)

	for i := 0; i < 3; i++ {
		messages := conversation(fmt.Sprintf("question %d", i))
		if _, _, err := store.ArchiveChat(messages); err != nil {
			t.Fatalf("archive %d failed: %v", i, err)
		}
		// IDs come from the millisecond clock; let it tick.
		time.Sleep(2 * time.Millisecond)
	}

	chats, err := store.ListArchived()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(chats) != 3 {
		t.Fatalf("archive len = %d, want 3", len(chats))
	}
	if chats[0].Preview != "question 2" || chats[2].Preview != "question 0" {
		t.Errorf("wrong order: %q ... %q", chats[0].Preview, chats[2].Preview)
	}
}

func TestArchiveCapacityBound(t *testing.T) {
	store := openTestStore(t)

	chats := make([]SavedChat, 0, maxArchivedChats)
	for i := 0; i < maxArchivedChats; i++ {
		chats = append([]SavedChat{{
			ID:       int64(i + 1),
			Preview:  fmt.Sprintf("chat %d", i),
			Messages: conversation("q"),
		}}, chats...)
	}
	if err := store.writeArchive(chats); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	// The archive is full; saving one more must drop the oldest entry.
	if _, _, err := store.ArchiveChat(conversation("the 51st")); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	got, err := store.ListArchived()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != maxArchivedChats {
		t.Fatalf("archive len = %d, want %d", len(got), maxArchivedChats)
	}
	if got[0].Preview != "the 51st" {
		t.Errorf("newest entry = %q, want the 51st", got[0].Preview)
	}
	if got[len(got)-1].Preview != "chat 1" {
		t.Errorf("oldest surviving entry = %q, want chat 1", got[len(got)-1].Preview)
	}
}

func TestArchivePreviewTruncation(t *testing.T) {
	store := openTestStore(t)

	long := strings.Repeat("x", 80)
	id, ok, err := store.ArchiveChat(conversation(long))
	if err != nil || !ok {
		t.Fatalf("archive failed: %v", err)
	}

	saved, ok, err := store.LoadArchived(id)
	if err != nil || !ok {
		t.Fatalf("load failed: %v", err)
	}
	if len([]rune(saved.Preview)) != 50 {
		t.Errorf("preview length = %d, want 50", len([]rune(saved.Preview)))
	}
}

func TestArchivePreviewWithoutUserMessage(t *testing.T) {
	store := openTestStore(t)

	messages := []model.Message{
		{Role: model.RoleAssistant, Content: model.TextContent("unprompted")},
	}
	id, ok, err := store.ArchiveChat(messages)
	if err != nil || !ok {
		t.Fatalf("archive failed: %v", err)
	}

	saved, _, err := store.LoadArchived(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if saved.Preview != "New Chat" {
		t.Errorf("preview = %q, want New Chat", saved.Preview)
	}
}

func TestDeleteArchived(t *testing.T) {
	store := openTestStore(t)

	id, _, err := store.ArchiveChat(conversation("target"))
	if err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	if err := store.DeleteArchived(id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, ok, _ := store.LoadArchived(id); ok {
		t.Error("deleted chat still present")
	}

	// Unknown IDs are a no-op.
	if err := store.DeleteArchived(123456); err != nil {
		t.Errorf("delete of unknown id failed: %v", err)
	}
}

func TestClearArchive(t *testing.T) {
	store := openTestStore(t)

	if _, _, err := store.ArchiveChat(conversation("one")); err != nil {
		t.Fatalf("archive failed: %v", err)
	}
	if err := store.ClearArchive(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	chats, err := store.ListArchived()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(chats) != 0 {
		t.Errorf("archive len = %d after clear", len(chats))
	}
}

func TestSearchArchived(t *testing.T) {
	store := openTestStore(t)

	seed := []SavedChat{
		{ID: 1, Preview: "how do goroutines work", Messages: conversation("q")},
		{ID: 2, Preview: "pasta recipe ideas", Messages: conversation("q")},
		{ID: 3, Preview: "go routine leak debugging", Messages: conversation("q")},
	}
	if err := store.writeArchive(seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	results, err := store.SearchArchived("goroutine")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no matches")
	}
	for _, r := range results {
		if r.ID == 2 {
			t.Errorf("unrelated chat matched: %+v", r)
		}
	}

	// Empty query returns the archive unchanged.
	all, err := store.SearchArchived("")
	if err != nil {
		t.Fatalf("empty search failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("empty query returned %d chats, want 3", len(all))
	}
}

func TestSearchIndexScansMessageBodies(t *testing.T) {
	store := openTestStore(t)

	seed := []SavedChat{
		{ID: 1, Preview: "first", Messages: []model.Message{
			{Role: model.RoleSystem, Content: model.TextContent("contains needle but is system")},
			{Role: model.RoleUser, Content: model.TextContent("where is the needle?")},
			{Role: model.RoleAssistant, Content: model.TextContent("in the haystack")},
		}},
		{ID: 2, Preview: "second", Messages: conversation("nothing here")},
	}
	if err := store.writeArchive(seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	index := NewSearchIndex(store)
	matches, err := index.SearchMessages("NEEDLE")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1 (system messages excluded)", len(matches))
	}
	if matches[0].ChatID != 1 || matches[0].Role != model.RoleUser {
		t.Errorf("match = %+v", matches[0])
	}

	empty, err := index.SearchMessages("")
	if err != nil {
		t.Fatalf("empty search failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("empty query returned %d matches", len(empty))
	}
}

func TestSearchIndexPreviewTruncatesOnRunes(t *testing.T) {
	store := openTestStore(t)

	long := "jehla " + strings.Repeat("ř", 120)
	seed := []SavedChat{
		{ID: 1, Preview: "dlouhá zpráva", Messages: []model.Message{
			{Role: model.RoleUser, Content: model.TextContent(long)},
		}},
	}
	if err := store.writeArchive(seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	matches, err := NewSearchIndex(store).SearchMessages("jehla")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}

	preview := matches[0].Preview
	if !utf8.ValidString(preview) {
		t.Errorf("preview cuts a multi-byte character: %q", preview)
	}
	if got := len([]rune(preview)); got != 103 {
		t.Errorf("preview rune length = %d, want 100 plus ellipsis", got)
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("long preview missing ellipsis: %q", preview)
	}
}
