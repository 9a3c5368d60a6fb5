package store

import (
	"context"
	"testing"
)

func TestCursorRoundTrip(t *testing.T) {
	sqlStore := newTestStore(t)
	ctx := context.Background()

	value, err := sqlStore.LoadCursor(ctx, CursorLastMentionID)
	if err != nil {
		t.Fatalf("load missing cursor: %v", err)
	}
	if value != "" {
		t.Fatalf("expected empty cursor, got %q", value)
	}

	if err := sqlStore.SaveCursor(ctx, CursorLastMentionID, "1201"); err != nil {
		t.Fatalf("save cursor: %v", err)
	}
	value, err = sqlStore.LoadCursor(ctx, CursorLastMentionID)
	if err != nil {
		t.Fatalf("load cursor: %v", err)
	}
	if value != "1201" {
		t.Fatalf("expected cursor 1201, got %q", value)
	}

	if err := sqlStore.SaveCursor(ctx, CursorLastMentionID, "1240"); err != nil {
		t.Fatalf("overwrite cursor: %v", err)
	}
	value, err = sqlStore.LoadCursor(ctx, CursorLastMentionID)
	if err != nil {
		t.Fatalf("load overwritten cursor: %v", err)
	}
	if value != "1240" {
		t.Fatalf("expected cursor 1240, got %q", value)
	}
}

func TestCursorRequiresName(t *testing.T) {
	sqlStore := newTestStore(t)
	if err := sqlStore.SaveCursor(context.Background(), "  ", "value"); err == nil {
		t.Fatal("expected error for empty cursor name")
	}
}
