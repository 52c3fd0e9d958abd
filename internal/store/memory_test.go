package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/medgrid/bedfinder-backend/pkg/enums"
	"github.com/medgrid/bedfinder-backend/pkg/types"
	"github.com/shopspring/decimal"
)

func seedHospital(t *testing.T, m *Memory, username string) Hospital {
	t.Helper()
	hospital, err := m.CreateHospital(context.Background(), Hospital{
		Username:     username,
		PasswordHash: "hash",
		Name:         "General Hospital",
		Address:      types.Address{Line1: "1 Main St", City: "Springfield", State: "IL", PostalCode: "62701", Country: "US"},
	})
	if err != nil {
		t.Fatalf("seed hospital: %v", err)
	}
	return hospital
}

func seedBedType(t *testing.T, m *Memory, name string) BedType {
	t.Helper()
	bedType, err := m.CreateBedType(context.Background(), BedType{Name: name})
	if err != nil {
		t.Fatalf("seed bed type: %v", err)
	}
	return bedType
}

func seedBed(t *testing.T, m *Memory, hospitalID, bedTypeID uuid.UUID, total, available int) Bed {
	t.Helper()
	bed, err := m.CreateBed(context.Background(), Bed{
		HospitalID:    hospitalID,
		BedTypeID:     bedTypeID,
		TotalBeds:     total,
		AvailableBeds: available,
		PricePerNight: decimal.NewFromInt(200),
	})
	if err != nil {
		t.Fatalf("seed bed: %v", err)
	}
	return bed
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.CreateUser(ctx, User{Username: "alice", Email: "Alice@example.com", Role: enums.RoleUser}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := m.CreateUser(ctx, User{Username: "alice2", Email: "alice@EXAMPLE.com", Role: enums.RoleUser}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
	if _, err := m.CreateUser(ctx, User{Username: "Alice", Email: "other@example.com", Role: enums.RoleUser}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate username error, got %v", err)
	}

	user, err := m.FindUserByEmail(ctx, "ALICE@example.COM")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestHospitalUniquenessAndApproval(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	hospital := seedHospital(t, m, "springfield-general")

	if _, err := m.CreateHospital(ctx, Hospital{Username: "Springfield-General"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate username error, got %v", err)
	}

	if hospital.Approved {
		t.Fatal("hospitals must start unapproved")
	}
	approvedList, err := m.ListApprovedHospitals(ctx)
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(approvedList) != 0 {
		t.Fatalf("expected no approved hospitals, got %d", len(approvedList))
	}

	if _, err := m.SetHospitalApproved(ctx, hospital.ID, true); err != nil {
		t.Fatalf("approve: %v", err)
	}
	approvedList, err = m.ListApprovedHospitals(ctx)
	if err != nil {
		t.Fatalf("list approved: %v", err)
	}
	if len(approvedList) != 1 || approvedList[0].ID != hospital.ID {
		t.Fatalf("unexpected approved list %+v", approvedList)
	}

	if _, err := m.SetHospitalApproved(ctx, uuid.New(), true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestExternalRefMapping(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first, err := m.CreateHospital(ctx, Hospital{Username: "ext-hospital", ExternalRef: "remote-1", Approved: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := m.CreateHospital(ctx, Hospital{Username: "ext-hospital-2", ExternalRef: "remote-1"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate external ref, got %v", err)
	}

	found, err := m.FindHospitalByExternalRef(ctx, "remote-1")
	if err != nil {
		t.Fatalf("find by external ref: %v", err)
	}
	if found.ID != first.ID {
		t.Fatalf("expected %s, got %s", first.ID, found.ID)
	}
}

func TestBedTypeCatalog(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	icu := seedBedType(t, m, "ICU")
	if _, err := m.CreateBedType(ctx, BedType{Name: "icu"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected case-insensitive duplicate, got %v", err)
	}

	found, err := m.FindBedTypeByName(ctx, "  icu ")
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if found.ID != icu.ID {
		t.Fatalf("expected %s, got %s", icu.ID, found.ID)
	}

	desc := "intensive care"
	updated, err := m.UpdateBedType(ctx, icu.ID, BedTypeUpdate{Description: &desc})
	if err != nil {
		t.Fatalf("update bed type: %v", err)
	}
	if updated.Description != desc || updated.Name != "ICU" {
		t.Fatalf("unexpected bed type %+v", updated)
	}
}

func TestBedPairUniquenessAndBounds(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	hospital := seedHospital(t, m, "h1")
	icu := seedBedType(t, m, "icu")
	bed := seedBed(t, m, hospital.ID, icu.ID, 5, 5)

	if _, err := m.CreateBed(ctx, Bed{HospitalID: hospital.ID, BedTypeID: icu.ID, TotalBeds: 2, AvailableBeds: 2}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate pair error, got %v", err)
	}

	bad := 9
	if _, err := m.UpdateBed(ctx, bed.ID, BedUpdate{AvailableBeds: &bad}); !errors.Is(err, ErrCapacityBounds) {
		t.Fatalf("expected bounds error, got %v", err)
	}

	if _, err := m.AdjustAvailable(ctx, bed.ID, -6); !errors.Is(err, ErrCapacityBounds) {
		t.Fatalf("expected bounds error on negative adjust, got %v", err)
	}
	adjusted, err := m.AdjustAvailable(ctx, bed.ID, -2)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if adjusted.AvailableBeds != 3 {
		t.Fatalf("expected available=3, got %d", adjusted.AvailableBeds)
	}
}

func TestBookingLifecycleICUScenario(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	hospital := seedHospital(t, m, "icu-hospital")
	icu := seedBedType(t, m, "icu")
	bed := seedBed(t, m, hospital.ID, icu.ID, 5, 5)
	userID := uuid.New()

	bookings := make([]Booking, 0, 5)
	for i := 0; i < 5; i++ {
		booking, err := m.CreateBooking(ctx, Booking{
			UserID:      userID,
			HospitalID:  hospital.ID,
			BedTypeID:   icu.ID,
			PatientName: "patient",
		})
		if err != nil {
			t.Fatalf("booking %d: %v", i+1, err)
		}
		if booking.Status != enums.BookingStatusPending {
			t.Fatalf("expected pending, got %s", booking.Status)
		}
		bookings = append(bookings, booking)
	}

	current, err := m.GetBedByHospitalAndType(ctx, hospital.ID, icu.ID)
	if err != nil {
		t.Fatalf("get bed: %v", err)
	}
	if current.AvailableBeds != 0 {
		t.Fatalf("expected available=0 after five bookings, got %d", current.AvailableBeds)
	}

	if _, err := m.CreateBooking(ctx, Booking{UserID: userID, HospitalID: hospital.ID, BedTypeID: icu.ID}); !errors.Is(err, ErrNoCapacity) {
		t.Fatalf("expected no capacity on sixth booking, got %v", err)
	}
	listed, err := m.ListBookingsByUser(ctx, userID)
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(listed) != 5 {
		t.Fatalf("failed booking must not leave a record; got %d", len(listed))
	}
	current, _ = m.GetBedByHospitalAndType(ctx, hospital.ID, icu.ID)
	if current.AvailableBeds != 0 {
		t.Fatalf("failed booking must not mutate inventory; available=%d", current.AvailableBeds)
	}

	_, prior, err := m.UpdateBookingStatus(ctx, bookings[0].ID, enums.BookingStatusCanceled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if prior != enums.BookingStatusPending {
		t.Fatalf("expected prior pending, got %s", prior)
	}
	current, _ = m.GetBedByHospitalAndType(ctx, hospital.ID, icu.ID)
	if current.AvailableBeds != 1 {
		t.Fatalf("expected available=1 after cancel, got %d", current.AvailableBeds)
	}

	// A second cancel reports a non-pending prior status and must not
	// restore again.
	_, prior, err = m.UpdateBookingStatus(ctx, bookings[0].ID, enums.BookingStatusCanceled)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if prior != enums.BookingStatusCanceled {
		t.Fatalf("expected prior canceled, got %s", prior)
	}
	current, _ = m.GetBedByHospitalAndType(ctx, hospital.ID, icu.ID)
	if current.AvailableBeds != 1 {
		t.Fatalf("double cancel must not restore twice; available=%d", current.AvailableBeds)
	}

	if bed.TotalBeds != 5 {
		t.Fatalf("total must stay fixed, got %d", bed.TotalBeds)
	}
}

func TestApproveAndRejectKeepInventory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	hospital := seedHospital(t, m, "h-decisions")
	ward := seedBedType(t, m, "general")
	seedBed(t, m, hospital.ID, ward.ID, 3, 3)

	first, err := m.CreateBooking(ctx, Booking{UserID: uuid.New(), HospitalID: hospital.ID, BedTypeID: ward.ID})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	second, err := m.CreateBooking(ctx, Booking{UserID: uuid.New(), HospitalID: hospital.ID, BedTypeID: ward.ID})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	if _, _, err := m.UpdateBookingStatus(ctx, first.ID, enums.BookingStatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, _, err := m.UpdateBookingStatus(ctx, second.ID, enums.BookingStatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	bed, err := m.GetBedByHospitalAndType(ctx, hospital.ID, ward.ID)
	if err != nil {
		t.Fatalf("get bed: %v", err)
	}
	if bed.AvailableBeds != 1 {
		t.Fatalf("approve/reject must not change availability; got %d", bed.AvailableBeds)
	}
}

func TestApplyRemoteCountsMergePolicy(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	hospital := seedHospital(t, m, "h-sync")
	icu := seedBedType(t, m, "icu")

	// Unknown pair is created with the remote snapshot.
	created, err := m.ApplyRemoteCounts(ctx, hospital.ID, icu.ID, RemoteBedCounts{Total: 4, Available: 6, PricePerNight: decimal.NewFromInt(300)})
	if err != nil {
		t.Fatalf("apply remote counts: %v", err)
	}
	if created.TotalBeds != 4 || created.AvailableBeds != 4 {
		t.Fatalf("expected clamped create 4/4, got %d/%d", created.TotalBeds, created.AvailableBeds)
	}

	// Local bookings consume two beds.
	for i := 0; i < 2; i++ {
		if _, err := m.CreateBooking(ctx, Booking{UserID: uuid.New(), HospitalID: hospital.ID, BedTypeID: icu.ID}); err != nil {
			t.Fatalf("booking: %v", err)
		}
	}

	// Same remote total: nothing shifts, local decrements survive.
	merged, err := m.ApplyRemoteCounts(ctx, hospital.ID, icu.ID, RemoteBedCounts{Total: 4, Available: 4})
	if err != nil {
		t.Fatalf("apply remote counts: %v", err)
	}
	if merged.AvailableBeds != 2 {
		t.Fatalf("stale snapshot must not clobber local decrements; got %d", merged.AvailableBeds)
	}

	// Remote grew by two: availability shifts by the delta.
	merged, err = m.ApplyRemoteCounts(ctx, hospital.ID, icu.ID, RemoteBedCounts{Total: 6, Available: 6})
	if err != nil {
		t.Fatalf("apply remote counts: %v", err)
	}
	if merged.TotalBeds != 6 || merged.AvailableBeds != 4 {
		t.Fatalf("expected 6/4 after growth, got %d/%d", merged.TotalBeds, merged.AvailableBeds)
	}

	// Remote shrank below local availability: clamp to the new total.
	merged, err = m.ApplyRemoteCounts(ctx, hospital.ID, icu.ID, RemoteBedCounts{Total: 1, Available: 1})
	if err != nil {
		t.Fatalf("apply remote counts: %v", err)
	}
	if merged.TotalBeds != 1 || merged.AvailableBeds < 0 || merged.AvailableBeds > merged.TotalBeds {
		t.Fatalf("clamp violated: %d/%d", merged.TotalBeds, merged.AvailableBeds)
	}
}

func TestBookingListsAreScoped(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	hospitalA := seedHospital(t, m, "h-a")
	hospitalB := seedHospital(t, m, "h-b")
	ward := seedBedType(t, m, "general")
	seedBed(t, m, hospitalA.ID, ward.ID, 2, 2)
	seedBed(t, m, hospitalB.ID, ward.ID, 2, 2)

	userA := uuid.New()
	userB := uuid.New()
	if _, err := m.CreateBooking(ctx, Booking{UserID: userA, HospitalID: hospitalA.ID, BedTypeID: ward.ID}); err != nil {
		t.Fatalf("booking: %v", err)
	}
	if _, err := m.CreateBooking(ctx, Booking{UserID: userB, HospitalID: hospitalB.ID, BedTypeID: ward.ID}); err != nil {
		t.Fatalf("booking: %v", err)
	}

	byUser, err := m.ListBookingsByUser(ctx, userA)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(byUser) != 1 || byUser[0].HospitalID != hospitalA.ID {
		t.Fatalf("unexpected user scope %+v", byUser)
	}

	byHospital, err := m.ListBookingsByHospital(ctx, hospitalB.ID)
	if err != nil {
		t.Fatalf("list by hospital: %v", err)
	}
	if len(byHospital) != 1 || byHospital[0].UserID != userB {
		t.Fatalf("unexpected hospital scope %+v", byHospital)
	}
}
