package transaction

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	contractx "github.com/tanpawarit/GoodFoods-Reservation-Agent/agent/contract"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/availability"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/catalog"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/booking/reservation"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/clock"
	"github.com/tanpawarit/GoodFoods-Reservation-Agent/pkg/errs"
)

var fixedNow = time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)

type failingSnapshotter struct {
	fail atomic.Bool
}

func (f *failingSnapshotter) Load(context.Context) ([]reservation.Reservation, error) {
	return nil, nil
}

func (f *failingSnapshotter) Save(context.Context, []reservation.Reservation) error {
	if f.fail.Load() {
		return errors.New("disk full")
	}
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, ev Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return n.err
}

func testCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	var rs []catalog.Restaurant
	for _, rec := range []catalog.Record{
		{ID: "rest_001", Name: "Bella Kitchen", Address: "12 Main St, Downtown", Phone: "(555) 100-2000", Capacity: 4, PriceRange: "$30", Rating: 4.5},
		{ID: "rest_002", Name: "Golden Grill", Capacity: 10, PriceRange: "$20", Rating: 4.1},
	} {
		r, err := catalog.NewRestaurant(rec)
		if err != nil {
			t.Fatalf("NewRestaurant() error = %v", err)
		}
		rs = append(rs, r)
	}
	return catalog.NewStore(rs)
}

func newTestService(t *testing.T, opts ...Option) (*Service, *reservation.Store) {
	t.Helper()
	store, err := reservation.Open(context.Background(), reservation.NewFileSnapshotter(filepath.Join(t.TempDir(), "reservations.json")))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	opts = append([]Option{WithClock(clock.NewFixedClock(fixedNow))}, opts...)
	return NewService(testCatalog(t), store, opts...), store
}

func makeReq(restaurantID, name string, party int) MakeRequest {
	return MakeRequest{
		RestaurantID:  restaurantID,
		CustomerName:  name,
		CustomerPhone: "555-0100",
		CustomerEmail: "guest@example.com",
		Date:          "2099-01-01",
		Time:          "18:00",
		PartySize:     party,
	}
}

func TestMakeValidationOrder(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(r *MakeRequest)
		mark    error
		message string
	}{
		{name: "missing phone", mutate: func(r *MakeRequest) { r.CustomerPhone = "" }, mark: contractx.ErrValidation, message: "Missing required parameters: customer_phone"},
		{name: "bad date before bad email", mutate: func(r *MakeRequest) { r.Date = "01/01/2099"; r.CustomerEmail = "nope" }, mark: contractx.ErrValidation, message: "Invalid date format. Use YYYY-MM-DD"},
		{name: "bad time", mutate: func(r *MakeRequest) { r.Time = "6pm" }, mark: contractx.ErrValidation, message: "Invalid time format. Use HH:MM"},
		{name: "past", mutate: func(r *MakeRequest) { r.Date = "2030-06-01"; r.Time = "08:59" }, mark: contractx.ErrValidation, message: "Cannot make reservations for past dates"},
		{name: "email", mutate: func(r *MakeRequest) { r.CustomerEmail = "guest@example" }, mark: contractx.ErrValidation, message: "Invalid email format"},
		{name: "unknown restaurant", mutate: func(r *MakeRequest) { r.RestaurantID = "rest_999" }, mark: contractx.ErrNotFound, message: "Reservation cannot be made: Restaurant with ID 'rest_999' not found"},
		{name: "over capacity", mutate: func(r *MakeRequest) { r.PartySize = 5 }, mark: contractx.ErrCapacityConflict, message: "Reservation cannot be made: Party size (5) exceeds restaurant capacity (4)"},
		{name: "negative party", mutate: func(r *MakeRequest) { r.PartySize = -1 }, mark: contractx.ErrValidation, message: "Party size must be positive"},
	}

	for _, tt := range tests {
		req := makeReq("rest_001", "Ana", 2)
		tt.mutate(&req)
		_, err := svc.Make(ctx, req)
		if err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
		if !errs.Is(err, tt.mark) {
			t.Fatalf("%s: error = %v, want mark %v", tt.name, err, tt.mark)
		}
		if err.Error() != tt.message {
			t.Fatalf("%s: message = %q, want %q", tt.name, err.Error(), tt.message)
		}
	}

	if got := store.All(); len(got) != 0 {
		t.Fatalf("rejected requests stored %d reservations", len(got))
	}
}

func TestMakeAtExactlyNowIsAllowed(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	req := makeReq("rest_001", "Ana", 2)
	req.Date = "2030-06-01"
	req.Time = "09:00"
	if _, err := svc.Make(context.Background(), req); err != nil {
		t.Fatalf("Make() error = %v", err)
	}
}

func TestMakeConfirmationJoinsRestaurant(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	svc, store := newTestService(t, WithNotifier(notifier))

	req := makeReq("rest_001", "Ana", 2)
	req.Time = "9:30"
	req.SpecialRequests = "window seat"
	conf, err := svc.Make(context.Background(), req)
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	if conf.RestaurantName != "Bella Kitchen" || conf.RestaurantAddress != "12 Main St, Downtown" || conf.RestaurantPhone != "(555) 100-2000" {
		t.Fatalf("Confirmation = %+v", conf)
	}
	if conf.Reservation.Time != "09:30" || conf.Reservation.Status != reservation.StatusConfirmed {
		t.Fatalf("Reservation = %+v", conf.Reservation)
	}
	if _, ok := store.FindByID(conf.Reservation.ID); !ok {
		t.Fatal("reservation not persisted in store")
	}
	if len(notifier.events) != 1 || notifier.events[0].Type != EventConfirmed {
		t.Fatalf("events = %+v", notifier.events)
	}
}

func TestMakeNotifierFailureDoesNotRollBack(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{err: errors.New("queue down")}
	svc, store := newTestService(t, WithNotifier(notifier))

	conf, err := svc.Make(context.Background(), makeReq("rest_001", "Ana", 2))
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}
	if _, ok := store.FindByID(conf.Reservation.ID); !ok {
		t.Fatal("reservation rolled back after notifier failure")
	}
}

func TestMakeCapacityConflictCarriesAlternatives(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Make(ctx, makeReq("rest_001", "Ana", 4)); err != nil {
		t.Fatalf("first Make() error = %v", err)
	}

	_, err := svc.Make(ctx, makeReq("rest_001", "Ben", 1))
	if !errs.Is(err, contractx.ErrCapacityConflict) {
		t.Fatalf("second Make() error = %v, want capacity conflict", err)
	}
	var capErr *CapacityError
	if !errs.As(err, &capErr) {
		t.Fatalf("error %T is not a *CapacityError", err)
	}
	if capErr.Available != 0 || capErr.Requested != 1 {
		t.Fatalf("CapacityError = %+v", capErr)
	}
	if len(capErr.Alternatives) == 0 {
		t.Fatal("expected alternative slots")
	}
	for _, alt := range capErr.Alternatives {
		if alt >= "18:00" && alt < "20:00" {
			t.Fatalf("alternative %s falls inside the occupied window", alt)
		}
	}
	if err.Error() != "Reservation cannot be made: Not enough capacity. Available: 0, Requested: 1" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestMakePersistenceFailureCommitsNothing(t *testing.T) {
	t.Parallel()

	snap := &failingSnapshotter{}
	store, err := reservation.Open(context.Background(), snap)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	svc := NewService(testCatalog(t), store, WithClock(clock.NewFixedClock(fixedNow)))
	snap.fail.Store(true)

	_, err = svc.Make(context.Background(), makeReq("rest_001", "Ana", 2))
	if !errs.Is(err, contractx.ErrPersistence) {
		t.Fatalf("Make() error = %v, want persistence", err)
	}
	if len(store.All()) != 0 {
		t.Fatal("reservation visible after failed save")
	}
}

func TestConcurrentMakesNeverExceedCapacity(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	var ok, rejected atomic.Int32
	var g errgroup.Group
	for i := 0; i < 25; i++ {
		g.Go(func() error {
			_, err := svc.Make(ctx, makeReq("rest_002", "Guest", 1))
			switch {
			case err == nil:
				ok.Add(1)
			case errs.Is(err, contractx.ErrCapacityConflict):
				rejected.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ok.Load() != 10 || rejected.Load() != 15 {
		t.Fatalf("ok = %d rejected = %d, want 10 and 15", ok.Load(), rejected.Load())
	}
	at, _ := reservation.ParseTimeOfDay("18:00")
	if occupied := availability.Occupied(store.FindActiveByRestaurantAndDate("rest_002", "2099-01-01"), at); occupied != 10 {
		t.Fatalf("occupied = %d, want 10", occupied)
	}
}

func TestCancelByIDIsNotRepeatable(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	svc, store := newTestService(t, WithNotifier(notifier))
	ctx := context.Background()

	first, err := svc.Make(ctx, makeReq("rest_001", "Ana", 2))
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}
	other, err := svc.Make(ctx, makeReq("rest_001", "Ben", 2))
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	res, err := svc.Cancel(ctx, CancelRequest{ReservationID: first.Reservation.ID})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if res.Reservation.Status != reservation.StatusCancelled || res.RestaurantName != "Bella Kitchen" {
		t.Fatalf("Cancellation = %+v", res)
	}
	if res.Reservation.UpdatedAt != "2030-06-01T09:00:00Z" {
		t.Fatalf("UpdatedAt = %q", res.Reservation.UpdatedAt)
	}

	_, err = svc.Cancel(ctx, CancelRequest{ReservationID: first.Reservation.ID})
	if !errs.Is(err, contractx.ErrNotFound) {
		t.Fatalf("second Cancel() error = %v, want not found", err)
	}

	stored, _ := store.FindByID(first.Reservation.ID)
	if stored.Status != reservation.StatusCancelled || stored.UpdatedAt != res.Reservation.UpdatedAt {
		t.Fatalf("stored = %+v", stored)
	}
	if o, _ := store.FindByID(other.Reservation.ID); o.Status != reservation.StatusConfirmed {
		t.Fatalf("unrelated reservation changed: %+v", o)
	}
	if len(notifier.events) != 3 || notifier.events[2].Type != EventCancelled {
		t.Fatalf("events = %+v", notifier.events)
	}
}

func TestCancelAmbiguousCancelsNothing(t *testing.T) {
	t.Parallel()

	svc, store := newTestService(t)
	ctx := context.Background()

	a, err := svc.Make(ctx, makeReq("rest_001", "John Smith", 2))
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}
	b, err := svc.Make(ctx, makeReq("rest_002", "john smith", 3))
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	_, err = svc.Cancel(ctx, CancelRequest{CustomerName: "John Smith"})
	var amb *AmbiguousError
	if !errs.As(err, &amb) {
		t.Fatalf("Cancel() error = %v, want *AmbiguousError", err)
	}
	if len(amb.Candidates) != 2 || amb.Candidates[0].ReservationID != a.Reservation.ID || amb.Candidates[1].ReservationID != b.Reservation.ID {
		t.Fatalf("candidates = %+v", amb.Candidates)
	}
	if amb.Candidates[1].RestaurantName != "Golden Grill" {
		t.Fatalf("candidate restaurant = %q", amb.Candidates[1].RestaurantName)
	}
	for _, r := range store.All() {
		if r.Status != reservation.StatusConfirmed {
			t.Fatalf("reservation %s changed during ambiguous cancel", r.ID)
		}
	}
}

func TestCancelByCustomerFieldsDeduplicates(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	req := makeReq("rest_001", "Ana", 2)
	req.CustomerEmail = "Ana@Example.com"
	made, err := svc.Make(ctx, req)
	if err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	res, err := svc.Cancel(ctx, CancelRequest{CustomerName: "ANA", CustomerPhone: "555-0100", CustomerEmail: "ana@example.com"})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if res.Reservation.ID != made.Reservation.ID {
		t.Fatalf("cancelled %s, want %s", res.Reservation.ID, made.Reservation.ID)
	}

	_, err = svc.Cancel(ctx, CancelRequest{CustomerName: "Ana"})
	if !errs.Is(err, contractx.ErrNotFound) || err.Error() != "No active reservations found with the provided information" {
		t.Fatalf("Cancel() error = %v", err)
	}
}

func TestCancelRequiresIdentifier(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.Cancel(context.Background(), CancelRequest{CustomerName: "  "})
	if !errs.Is(err, contractx.ErrValidation) {
		t.Fatalf("Cancel() error = %v, want validation", err)
	}
}

func TestCheckAvailability(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Make(ctx, makeReq("rest_001", "Ana", 3)); err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	got, err := svc.CheckAvailability(ctx, CheckRequest{RestaurantID: "rest_001", Date: "2099-01-01", Time: "19:00", PartySize: 2})
	if err != nil {
		t.Fatalf("CheckAvailability() error = %v", err)
	}
	if got.Available || got.FreeCapacity != 1 {
		t.Fatalf("CheckAvailability() = %+v", got)
	}
	if len(got.Alternatives) == 0 || got.Alternatives[0] != "11:00" {
		t.Fatalf("Alternatives = %v", got.Alternatives)
	}

	got, err = svc.CheckAvailability(ctx, CheckRequest{RestaurantID: "rest_001", Date: "2099-01-01", Time: "20:00", PartySize: 4})
	if err != nil {
		t.Fatalf("CheckAvailability() error = %v", err)
	}
	if !got.Available || got.FreeCapacity != 4 || got.Alternatives != nil {
		t.Fatalf("CheckAvailability() at window end = %+v", got)
	}

	if _, err := svc.CheckAvailability(ctx, CheckRequest{RestaurantID: "rest_001", Date: "2099-01-01", Time: "19:00", PartySize: 9}); !errs.Is(err, contractx.ErrCapacityConflict) {
		t.Fatalf("over capacity error = %v", err)
	}
	if _, err := svc.CheckAvailability(ctx, CheckRequest{RestaurantID: "rest_001", Date: "2020-01-01", Time: "19:00", PartySize: 1}); !errs.Is(err, contractx.ErrValidation) {
		t.Fatalf("past date error = %v", err)
	}
}

type fakePublisher struct {
	destination string
	payload     any
	err         error
}

func (f *fakePublisher) Publish(_ context.Context, destination string, payload any) (string, error) {
	f.destination = destination
	f.payload = payload
	return "msg_1", f.err
}

func TestPublishingNotifier(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	n := NewPublishingNotifier(pub, "https://example.com/hook")
	ev := Event{Type: EventConfirmed, RestaurantName: "Bella Kitchen"}
	if err := n.Notify(context.Background(), ev); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if pub.destination != "https://example.com/hook" {
		t.Fatalf("destination = %q", pub.destination)
	}
	if got, ok := pub.payload.(Event); !ok || got.Type != EventConfirmed {
		t.Fatalf("payload = %#v", pub.payload)
	}

	pub.err = errors.New("down")
	if err := n.Notify(context.Background(), ev); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestMakePreservesUnrecognizedStoredRecords(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reservations.json")
	legacy := `[{"id":"old-1","restaurant_id":"rest_002","customer_name":"Old Guest","customer_phone":"555","customer_email":"old@example.com","party_size":3,"date":"2024-01-01","time":"18:00","status":"completed","created_at":"2024-01-01T10:00:00Z"}]`
	if err := os.WriteFile(path, []byte(legacy), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	snap := reservation.NewFileSnapshotter(path)
	store, err := reservation.Open(context.Background(), snap)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	svc := NewService(testCatalog(t), store, WithClock(clock.NewFixedClock(fixedNow)))

	if _, err := svc.Make(context.Background(), makeReq("rest_001", "Ana", 2)); err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	got, err := snap.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	var found bool
	for _, r := range got {
		if r.ID == "old-1" && r.Status == "completed" && r.PartySize == 3 {
			found = true
		}
	}
	if len(got) != 2 || !found {
		t.Fatalf("file contents after Make = %+v", got)
	}
}

func TestMakeFollowsClock(t *testing.T) {
	t.Parallel()

	clk := clock.NewFixedClock(time.Date(2099, 1, 1, 17, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, WithClock(clk))
	ctx := context.Background()

	if _, err := svc.Make(ctx, makeReq("rest_002", "Ana", 2)); err != nil {
		t.Fatalf("Make() before slot error = %v", err)
	}

	clk.Add(90 * time.Minute)
	_, err := svc.Make(ctx, makeReq("rest_002", "Ben", 2))
	if !errs.Is(err, contractx.ErrValidation) || err.Error() != "Cannot make reservations for past dates" {
		t.Fatalf("Make() after slot error = %v", err)
	}

	clk.Set(fixedNow)
	if _, err := svc.Make(ctx, makeReq("rest_002", "Ben", 2)); err != nil {
		t.Fatalf("Make() after rewinding error = %v", err)
	}
}
