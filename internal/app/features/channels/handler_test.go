package channels_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/linguashift/internal/app/features/channels"
	messagestore "github.com/dalemusser/linguashift/internal/app/store/messages"
	"github.com/dalemusser/linguashift/internal/domain/models"
	"github.com/dalemusser/linguashift/internal/testutil"
	"go.uber.org/zap"
)

type messageBody struct {
	ID           string     `json:"id"`
	TextOriginal string     `json:"textOriginal"`
	JargonScore  float64    `json:"jargonScore"`
	EditedAt     *time.Time `json:"editedAt"`
	DeletedAt    *time.Time `json:"deletedAt"`
	Redacted     bool       `json:"redacted"`
}

func withIDs(r *http.Request, id, mid string) *http.Request {
	r = testutil.WithChiURLParam(r, "id", id)
	if mid != "" {
		r = testutil.WithChiURLParam(r, "mid", mid)
	}
	return r
}

func TestHandleCreateGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	h := channels.NewHandler(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme")
	ann := fx.CreateUser(ctx, "Ann", "ann@acme.io", org.ID)

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"ok", map[string]string{"name": "Launch <b>team</b>"}, http.StatusCreated},
		{"blank", map[string]string{"name": "  "}, http.StatusBadRequest},
		{"markup only", map[string]string{"name": "<script>x</script>"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleCreateGroup(rec, testutil.AuthedJSONRequest(t, http.MethodPost, "/api/channels", tt.body, ann))
			rec.AssertStatus(t, tt.status)
		})
	}

	rec := testutil.NewRecorder()
	h.ServeList(rec, testutil.AuthedJSONRequest(t, http.MethodGet, "/api/channels", nil, ann))
	rec.AssertStatus(t, http.StatusOK)
	var got []models.Channel
	rec.DecodeJSON(t, &got)
	if len(got) != 1 || got[0].Name != "Launch team" || got[0].Type != models.ChannelGroup {
		t.Errorf("channels = %+v, want one sanitized group", got)
	}
}

func TestHandleDirect(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	h := channels.NewHandler(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acme := fx.CreateOrganization(ctx, "Acme")
	globex := fx.CreateOrganization(ctx, "Globex")
	ann := fx.CreateUser(ctx, "Ann", "ann@acme.io", acme.ID)
	bea := fx.CreateUser(ctx, "Bea", "bea@acme.io", acme.ID)
	cid := fx.CreateUser(ctx, "Cid", "cid@globex.io", globex.ID)

	open := func(from, to models.User) (*testutil.ResponseRecorder, models.Channel) {
		rec := testutil.NewRecorder()
		h.HandleDirect(rec, testutil.AuthedJSONRequest(t, http.MethodPost, "/api/channels/direct",
			map[string]string{"userId": to.ID.Hex()}, from))
		var ch models.Channel
		if rec.Code == http.StatusOK {
			rec.DecodeJSON(t, &ch)
		}
		return rec, ch
	}

	rec, first := open(ann, bea)
	rec.AssertStatus(t, http.StatusOK)
	rec, second := open(bea, ann)
	rec.AssertStatus(t, http.StatusOK)
	if first.ID != second.ID {
		t.Errorf("direct channel ids differ: %s vs %s", first.ID.Hex(), second.ID.Hex())
	}

	rec, _ = open(ann, ann)
	rec.AssertStatus(t, http.StatusBadRequest)

	rec, _ = open(ann, cid)
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestServeDetail_NonMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	h := channels.NewHandler(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme")
	ann := fx.CreateUser(ctx, "Ann", "ann@acme.io", org.ID)
	bea := fx.CreateUser(ctx, "Bea", "bea@acme.io", org.ID)
	ch := fx.CreateGroupChannel(ctx, "Ops", ann.ID)

	rec := testutil.NewRecorder()
	h.ServeDetail(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodGet, "/", nil, ann), ch.ID.Hex(), ""))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.ServeDetail(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodGet, "/", nil, bea), ch.ID.Hex(), ""))
	rec.AssertStatus(t, http.StatusNotFound)

	rec = testutil.NewRecorder()
	h.ServeDetail(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodGet, "/", nil, ann), "not-an-id", ""))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleAddMembers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	h := channels.NewHandler(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acme := fx.CreateOrganization(ctx, "Acme")
	globex := fx.CreateOrganization(ctx, "Globex")
	ann := fx.CreateUser(ctx, "Ann", "ann@acme.io", acme.ID)
	bea := fx.CreateUser(ctx, "Bea", "bea@acme.io", acme.ID)
	cid := fx.CreateUser(ctx, "Cid", "cid@globex.io", globex.ID)
	ch := fx.CreateGroupChannel(ctx, "Ops", ann.ID)

	add := func(actor models.User, ids ...string) *testutil.ResponseRecorder {
		rec := testutil.NewRecorder()
		req := testutil.AuthedJSONRequest(t, http.MethodPost, "/", map[string][]string{"userIds": ids}, actor)
		h.HandleAddMembers(rec, withIDs(req, ch.ID.Hex(), ""))
		return rec
	}

	add(ann, cid.ID.Hex()).AssertStatus(t, http.StatusNotFound)
	add(ann, bea.ID.Hex()).AssertStatus(t, http.StatusOK)
	// Bea is a member now but not an admin.
	add(bea, bea.ID.Hex()).AssertStatus(t, http.StatusForbidden)
}

func TestMessageLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	h := channels.NewHandler(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme")
	ann := fx.CreateUser(ctx, "Ann", "ann@acme.io", org.ID)
	bea := fx.CreateUser(ctx, "Bea", "bea@acme.io", org.ID)
	ch := fx.CreateGroupChannel(ctx, "Ops", ann.ID, bea.ID)
	chID := ch.ID.Hex()

	// send
	rec := testutil.NewRecorder()
	h.HandleSend(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodPost, "/", map[string]any{
		"textOriginal": "Let's circle back on KPIs",
		"jargonScore":  0.7,
		"jargonSpans":  []map[string]any{{"start": 6, "end": 17, "confidence": 0.7}},
	}, ann), chID, ""))
	rec.AssertStatus(t, http.StatusCreated)
	var sent messageBody
	rec.DecodeJSON(t, &sent)

	// edit by someone else
	rec = testutil.NewRecorder()
	h.HandleEdit(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodPatch, "/", map[string]any{
		"textOriginal": "hijacked",
	}, bea), chID, sent.ID))
	rec.AssertStatus(t, http.StatusForbidden)

	// edit by sender
	rec = testutil.NewRecorder()
	h.HandleEdit(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodPatch, "/", map[string]any{
		"textOriginal": "Let's follow up on the metrics",
	}, ann), chID, sent.ID))
	rec.AssertStatus(t, http.StatusOK)
	var edited messageBody
	rec.DecodeJSON(t, &edited)
	if edited.TextOriginal != "Let's follow up on the metrics" || edited.EditedAt == nil {
		t.Errorf("edited = %+v, want new text and editedAt", edited)
	}

	// second message, then delete the first
	rec = testutil.NewRecorder()
	h.HandleSend(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodPost, "/", map[string]any{
		"textOriginal": "sounds good",
	}, bea), chID, ""))
	rec.AssertStatus(t, http.StatusCreated)

	rec = testutil.NewRecorder()
	h.HandleDelete(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodDelete, "/", nil, ann), chID, sent.ID))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	h.ServeMessages(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodGet, "/", nil, bea), chID, ""))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertNotContains(t, "follow up on the metrics")

	var list []messageBody
	rec.DecodeJSON(t, &list)
	if len(list) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(list))
	}
	if list[0].ID != sent.ID || !list[0].Redacted || list[0].DeletedAt == nil || list[0].TextOriginal != "" {
		t.Errorf("first message = %+v, want redacted original in place", list[0])
	}
	if list[1].TextOriginal != "sounds good" {
		t.Errorf("second message = %+v", list[1])
	}
}

func TestHandleSend_MovesChannelToTop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	later := time.Now().UTC().Add(time.Minute)
	h := channels.NewHandler(db, nil, zap.NewNop(), messagestore.WithClock(func() time.Time { return later }))
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme")
	ann := fx.CreateUser(ctx, "Ann", "ann@acme.io", org.ID)
	older := fx.CreateGroupChannel(ctx, "older", ann.ID)
	newer := fx.CreateGroupChannel(ctx, "newer", ann.ID)

	rec := testutil.NewRecorder()
	h.HandleSend(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodPost, "/", map[string]any{
		"textOriginal": "bumping this one",
	}, ann), older.ID.Hex(), ""))
	rec.AssertStatus(t, http.StatusCreated)

	got, err := h.Channels.ListForUser(ctx, ann.ID)
	if err != nil {
		t.Fatalf("ListForUser failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != older.ID || got[1].ID != newer.ID {
		t.Errorf("expected the channel with the new message first, got %+v", got)
	}
}

func TestHandleSend_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	h := channels.NewHandler(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	org := fx.CreateOrganization(ctx, "Acme")
	ann := fx.CreateUser(ctx, "Ann", "ann@acme.io", org.ID)
	bea := fx.CreateUser(ctx, "Bea", "bea@acme.io", org.ID)
	ch := fx.CreateGroupChannel(ctx, "Ops", ann.ID)

	tests := []struct {
		name   string
		user   models.User
		body   map[string]any
		status int
	}{
		{"empty text", ann, map[string]any{"textOriginal": ""}, http.StatusBadRequest},
		{"score out of range", ann, map[string]any{"textOriginal": "hi", "jargonScore": 1.5}, http.StatusBadRequest},
		{"span past end", ann, map[string]any{"textOriginal": "hi", "jargonSpans": []map[string]any{{"start": 0, "end": 3, "confidence": 0.5}}}, http.StatusBadRequest},
		{"bad thread root", ann, map[string]any{"textOriginal": "hi", "threadRootId": "zzz"}, http.StatusBadRequest},
		{"not a member", bea, map[string]any{"textOriginal": "hi"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleSend(rec, withIDs(testutil.AuthedJSONRequest(t, http.MethodPost, "/", tt.body, tt.user), ch.ID.Hex(), ""))
			rec.AssertStatus(t, tt.status)
		})
	}
}
