package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/crypto/bcrypt"

	"pass-eligibility-api/internal/auth"
	"pass-eligibility-api/internal/cache"
	"pass-eligibility-api/internal/database"
	"pass-eligibility-api/internal/events"
	"pass-eligibility-api/internal/features"
	"pass-eligibility-api/internal/metrics"
	"pass-eligibility-api/internal/models"
	"pass-eligibility-api/internal/validation"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc      *Service
	db       *database.DB
	cache    *cache.InMemoryCache
	features *features.Manager
	events   *events.Manager
	metrics  *metrics.Metrics
}

func setupTestService(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		db:       db,
		cache:    cache.NewInMemoryCache(),
		features: features.NewManager(),
		events:   events.NewManager(true),
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	env.svc = NewServiceWithOptions(db, Options{
		Issuer:     auth.NewIssuer(testSecret, "passes-test", time.Hour),
		Cache:      env.cache,
		Features:   env.features,
		Events:     env.events,
		Metrics:    env.metrics,
		BCryptCost: bcrypt.MinCost,
		Clock:      func() time.Time { return testNow },
	})
	return env
}

func registerRequest(employeeNumber string) models.RegisterRequest {
	return models.RegisterRequest{
		EmployeeNumber: employeeNumber,
		Password:       "s3cret-pass",
		FirstName:      "Ana",
		LastName:       "García",
		Email:          "ana@example.com",
		TenureStart:    "2019-05-02",
		MaritalStatus:  "casado",
	}
}

func mustRegister(t *testing.T, svc *Service, employeeNumber string) models.Profile {
	t.Helper()
	profile, err := svc.RegisterProfile(context.Background(), registerRequest(employeeNumber))
	if err != nil {
		t.Fatalf("Failed to register profile: %v", err)
	}
	return profile
}

func mustAddBeneficiary(t *testing.T, svc *Service, profileID, relationship, birthDate string, student bool) models.Beneficiary {
	t.Helper()
	b, err := svc.CreateBeneficiary(context.Background(), profileID, models.BeneficiaryRequest{
		FirstName:     "Fam",
		LastName:      "García",
		BirthDate:     birthDate,
		Relationship:  relationship,
		Student:       student,
		Documentation: true,
	})
	if err != nil {
		t.Fatalf("Failed to create %s beneficiary: %v", relationship, err)
	}
	return b
}

func profileUpdate(p models.Profile) models.ProfileUpdateRequest {
	return models.ProfileUpdateRequest{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		TenureStart:   p.TenureStart.String(),
		MaritalStatus: string(p.MaritalStatus),
		Hierarchical:  p.Hierarchical,
		Retired:       p.Retired,
		OnLeave:       p.OnLeave,
		LeaveKind:     string(p.LeaveKind),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	profile := mustRegister(t, env.svc, "A-1")
	if profile.MaritalStatus != models.MaritalMarried {
		t.Errorf("Expected casado, got %s", profile.MaritalStatus)
	}

	resp, err := env.svc.Login(ctx, models.LoginRequest{EmployeeNumber: "A-1", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Failed to login: %v", err)
	}
	if resp.Profile.ID != profile.ID || resp.Token == "" {
		t.Errorf("Unexpected login response: %+v", resp)
	}

	for _, req := range []models.LoginRequest{
		{EmployeeNumber: "A-1", Password: "wrong-password"},
		{EmployeeNumber: "Z-9", Password: "s3cret-pass"},
		{EmployeeNumber: "", Password: ""},
	} {
		if _, err := env.svc.Login(ctx, req); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Expected ErrInvalidCredentials for %+v, got %v", req, err)
		}
	}

	if _, err := env.svc.RegisterProfile(ctx, registerRequest("A-1")); !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for duplicate employee number, got %v", err)
	}
}

func TestRegisterProfile_ValidationError(t *testing.T) {
	env := setupTestService(t)

	req := registerRequest("A-1")
	req.MaritalStatus = "complicado"

	_, err := env.svc.RegisterProfile(context.Background(), req)
	var verr *validation.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if verr.Field != "estado_civil" {
		t.Errorf("Expected estado_civil, got %s", verr.Field)
	}
}

func TestCreateBeneficiary_DerivesGroup(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")

	// 21 years old on the test date
	child := mustAddBeneficiary(t, env.svc, profile.ID, "hijo", "2004-06-01", false)
	if child.FamilyGroup != models.GroupAssimilable {
		t.Errorf("Expected habilitado_asimilable for a 21 year old non-student, got %s", child.FamilyGroup)
	}

	updated, err := env.svc.UpdateBeneficiary(ctx, profile.ID, child.ID, models.BeneficiaryRequest{
		FirstName:     "Fam",
		LastName:      "García",
		BirthDate:     "2004-06-01",
		Relationship:  "hijo",
		Student:       true,
		Documentation: true,
	})
	if err != nil {
		t.Fatalf("Failed to update beneficiary: %v", err)
	}
	if updated.FamilyGroup != models.GroupBasic {
		t.Errorf("Expected basico for a 21 year old student, got %s", updated.FamilyGroup)
	}

	parent := mustAddBeneficiary(t, env.svc, profile.ID, "padre", "1960-01-01", false)
	if parent.FamilyGroup != models.GroupAssimilable {
		t.Errorf("Expected habilitado_asimilable for the parent of a married titular, got %s", parent.FamilyGroup)
	}

	noName := mustAddBeneficiary(t, env.svc, profile.ID, "no_name", "1990-01-01", false)
	if noName.FamilyGroup != models.GroupNoName {
		t.Errorf("Expected no_name, got %s", noName.FamilyGroup)
	}
}

func TestUpdateProfile_RecomputesGroups(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")
	parent := mustAddBeneficiary(t, env.svc, profile.ID, "padre", "1960-01-01", false)
	spouse := mustAddBeneficiary(t, env.svc, profile.ID, "conyuge", "1985-01-01", false)

	var mu sync.Mutex
	var regrouped int
	env.events.Subscribe(events.EventProfileUpdated, func(ctx context.Context, e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		regrouped = len(e.Data.(events.ProfileUpdatedData).Regrouped)
		return nil
	})

	profile.MaritalStatus = models.MaritalDivorced
	if _, err := env.svc.UpdateProfile(ctx, profile.ID, profileUpdate(profile)); err != nil {
		t.Fatalf("Failed to update profile: %v", err)
	}
	env.events.Wait()

	got, err := env.db.GetBeneficiary(ctx, profile.ID, parent.ID)
	if err != nil {
		t.Fatalf("Failed to get beneficiary: %v", err)
	}
	if got.FamilyGroup != models.GroupBasic {
		t.Errorf("Expected parent to become basico, got %s", got.FamilyGroup)
	}

	got, err = env.db.GetBeneficiary(ctx, profile.ID, spouse.ID)
	if err != nil {
		t.Fatalf("Failed to get beneficiary: %v", err)
	}
	if got.FamilyGroup != models.GroupNonAssimilable {
		t.Errorf("Expected former spouse to become habilitado_no_asimilable, got %s", got.FamilyGroup)
	}

	mu.Lock()
	defer mu.Unlock()
	if regrouped != 2 {
		t.Errorf("Expected 2 regrouped beneficiaries in the event, got %d", regrouped)
	}
}

func TestUpdateProfile_NotFound(t *testing.T) {
	env := setupTestService(t)

	req := profileUpdate(models.Profile{
		FirstName:     "Ana",
		LastName:      "García",
		TenureStart:   models.NewDate(2019, time.May, 2),
		MaritalStatus: models.MaritalSingle,
	})
	_, err := env.svc.UpdateProfile(context.Background(), uuid.New().String(), req)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestCheckEligibility_BlockingLeaveKeepsOffers(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")
	child := mustAddBeneficiary(t, env.svc, profile.ID, "hijo", "2015-01-01", false)

	profile.OnLeave = true
	profile.LeaveKind = models.LeaveMedical
	if _, err := env.svc.UpdateProfile(ctx, profile.ID, profileUpdate(profile)); err != nil {
		t.Fatalf("Failed to update profile: %v", err)
	}

	got, err := env.svc.CheckEligibility(ctx, profile.ID, child.ID)
	if err != nil {
		t.Fatalf("Failed to check eligibility: %v", err)
	}
	if got.Result.Eligible {
		t.Error("Expected beneficiary to be ineligible during medical leave")
	}
	if len(got.Result.Restrictions) != 1 {
		t.Errorf("Expected 1 restriction, got %d", len(got.Result.Restrictions))
	}
	if len(got.Result.Offers) != 3 {
		t.Errorf("Expected 10P, 50P and VAC to still be listed, got %d offers", len(got.Result.Offers))
	}

	blocked := testutil.ToFloat64(env.metrics.EligibilityOutcome.WithLabelValues("basico", "blocked"))
	if blocked != 1 {
		t.Errorf("Expected 1 blocked outcome recorded, got %v", blocked)
	}
}

func TestCheckEligibility_ForeignBeneficiary(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	owner := mustRegister(t, env.svc, "A-1")
	other := mustRegister(t, env.svc, "B-1")
	child := mustAddBeneficiary(t, env.svc, owner.ID, "hijo", "2015-01-01", false)

	if _, err := env.svc.CheckEligibility(ctx, other.ID, child.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := env.svc.CheckEligibility(ctx, owner.ID, "not-a-uuid"); err == nil {
		t.Error("Expected validation error for malformed id")
	}
}

func TestCheckAllEligibility(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")
	mustAddBeneficiary(t, env.svc, profile.ID, "hijo", "2015-01-01", false)
	mustAddBeneficiary(t, env.svc, profile.ID, "padre", "1960-01-01", false)
	mustAddBeneficiary(t, env.svc, profile.ID, "suegro", "1958-01-01", false)
	gone := mustAddBeneficiary(t, env.svc, profile.ID, "hermano", "1990-01-01", false)

	if err := env.svc.DeleteBeneficiary(ctx, profile.ID, gone.ID); err != nil {
		t.Fatalf("Failed to delete beneficiary: %v", err)
	}

	resp, err := env.svc.CheckAllEligibility(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Failed to check eligibility: %v", err)
	}
	if resp.Blackout.InBlackout {
		t.Error("Expected no blackout on 2 March")
	}
	if resp.TenureMonths < 36 {
		t.Errorf("Expected more than 36 months of tenure, got %d", resp.TenureMonths)
	}
	if len(resp.Beneficiaries) != 3 {
		t.Fatalf("Expected 3 active beneficiaries, got %d", len(resp.Beneficiaries))
	}

	want := map[models.FamilyGroup][]models.PassType{
		models.GroupBasic:          {models.Pass10P, models.Pass50P, models.PassVAC},
		models.GroupAssimilable:    {models.Pass25P, models.PassVAC},
		models.GroupNonAssimilable: {models.Pass25V},
	}
	for _, be := range resp.Beneficiaries {
		if !be.Result.Eligible {
			t.Errorf("Expected %s to be eligible", be.Beneficiary.Relationship)
		}
		expected := want[be.Beneficiary.FamilyGroup]
		if len(be.Result.Offers) != len(expected) {
			t.Errorf("Expected %d offers for %s, got %d", len(expected), be.Beneficiary.FamilyGroup, len(be.Result.Offers))
			continue
		}
		for i, o := range be.Result.Offers {
			if o.Type != expected[i] {
				t.Errorf("Expected offer %d of %s to be %s, got %s", i, be.Beneficiary.FamilyGroup, expected[i], o.Type)
			}
		}
	}
}

func TestDeleteBeneficiary_NotFound(t *testing.T) {
	env := setupTestService(t)
	profile := mustRegister(t, env.svc, "A-1")

	err := env.svc.DeleteBeneficiary(context.Background(), profile.ID, uuid.New().String())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAvailablePasses(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")

	offers, err := env.svc.AvailablePasses(ctx, profile.ID, "habilitado_no_asimilable")
	if err != nil {
		t.Fatalf("Failed to list passes: %v", err)
	}
	if len(offers) != 1 || offers[0].Type != models.Pass25V {
		t.Errorf("Expected only 25V, got %+v", offers)
	}

	if _, err := env.svc.AvailablePasses(ctx, profile.ID, "vip"); err == nil {
		t.Error("Expected error for unknown group")
	}
}

func TestBlackoutStatus(t *testing.T) {
	env := setupTestService(t)

	status, err := env.svc.BlackoutStatus("")
	if err != nil || status.InBlackout {
		t.Errorf("Expected no blackout today, got %+v, %v", status, err)
	}

	status, err = env.svc.BlackoutStatus("2025-12-20")
	if err != nil || !status.InBlackout || status.Period.Kind != models.BlackoutYearEnd {
		t.Errorf("Expected year-end blackout, got %+v, %v", status, err)
	}

	status, _ = env.svc.BlackoutStatus("2026-04-02")
	if status.InBlackout {
		t.Error("Expected Holy Week to be ignored while the flag is off")
	}

	env.features.Enable(features.FeatureHolyWeekBlackout)
	status, _ = env.svc.BlackoutStatus("2026-04-02")
	if !status.InBlackout || status.Period.Kind != models.BlackoutHolyWeek {
		t.Errorf("Expected Holy Week blackout, got %+v", status)
	}

	if _, err := env.svc.BlackoutStatus("20/12/2025"); err == nil {
		t.Error("Expected error for malformed date")
	}
}

func TestNoNameImpact(t *testing.T) {
	env := setupTestService(t)
	profile := mustRegister(t, env.svc, "A-1")

	warnings, err := env.svc.NoNameImpact(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("Failed to get impact: %v", err)
	}
	if len(warnings) != 3 {
		t.Errorf("Expected 3 warnings, got %d", len(warnings))
	}
}

func TestCreateTransfer(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")
	spouse := mustAddBeneficiary(t, env.svc, profile.ID, "conyuge", "1985-01-01", false)
	child := mustAddBeneficiary(t, env.svc, profile.ID, "hijo", "2015-01-01", false)
	stepchild := mustAddBeneficiary(t, env.svc, profile.ID, "hijastro", "2016-01-01", false)
	nephew := mustAddBeneficiary(t, env.svc, profile.ID, "sobrino", "2000-01-01", false)
	parent := mustAddBeneficiary(t, env.svc, profile.ID, "padre", "1960-01-01", false)

	var received sync.WaitGroup
	received.Add(2)
	env.events.Subscribe(events.EventTransferCreated, func(ctx context.Context, e events.Event) error {
		received.Done()
		return nil
	})

	transfer, err := env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: spouse.ID,
		ToBeneficiaryID:   nephew.ID,
	})
	if err != nil {
		t.Fatalf("Failed to create transfer: %v", err)
	}
	if transfer.VacationYear != "2025-2026" {
		t.Errorf("Expected vacation year 2025-2026, got %s", transfer.VacationYear)
	}

	// habilitado_asimilable relatives can receive a transfer too
	if _, err := env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: child.ID,
		ToBeneficiaryID:   parent.ID,
	}); err != nil {
		t.Fatalf("Failed to create transfer to an assimilable relative: %v", err)
	}
	received.Wait()

	_, err = env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: stepchild.ID,
		ToBeneficiaryID:   nephew.ID,
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for a destination that already received a transfer, got %v", err)
	}

	_, err = env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: parent.ID,
		ToBeneficiaryID:   nephew.ID,
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for a non-basic origin, got %v", err)
	}

	_, err = env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: stepchild.ID,
		ToBeneficiaryID:   child.ID,
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for a basic destination, got %v", err)
	}

	transfers, err := env.svc.ListTransfers(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Failed to list transfers: %v", err)
	}
	if len(transfers) != 2 {
		t.Errorf("Expected 2 transfers, got %d", len(transfers))
	}
}

func TestCreateTransfer_OriginOncePerVacationYear(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")
	child := mustAddBeneficiary(t, env.svc, profile.ID, "hijo", "2015-01-01", false)
	nephew := mustAddBeneficiary(t, env.svc, profile.ID, "sobrino", "2000-01-01", false)
	grandchild := mustAddBeneficiary(t, env.svc, profile.ID, "nieto", "2020-01-01", false)

	if _, err := env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: child.ID,
		ToBeneficiaryID:   nephew.ID,
	}); err != nil {
		t.Fatalf("Failed to create transfer: %v", err)
	}

	_, err := env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: child.ID,
		ToBeneficiaryID:   grandchild.ID,
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict when reusing an origin, got %v", err)
	}

	transfers, err := env.svc.ListTransfers(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Failed to list transfers: %v", err)
	}
	if len(transfers) != 1 {
		t.Errorf("Expected 1 transfer, got %d", len(transfers))
	}
}

func TestCreateTransfer_AtMostThreePerVacationYear(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")

	origins := []models.Beneficiary{
		mustAddBeneficiary(t, env.svc, profile.ID, "conyuge", "1985-01-01", false),
		mustAddBeneficiary(t, env.svc, profile.ID, "hijo", "2015-01-01", false),
		mustAddBeneficiary(t, env.svc, profile.ID, "hijastro", "2016-01-01", false),
		mustAddBeneficiary(t, env.svc, profile.ID, "menor_cargo", "2017-01-01", false),
	}
	destinations := []models.Beneficiary{
		mustAddBeneficiary(t, env.svc, profile.ID, "sobrino", "2000-01-01", false),
		mustAddBeneficiary(t, env.svc, profile.ID, "nieto", "2020-01-01", false),
		mustAddBeneficiary(t, env.svc, profile.ID, "suegro", "1958-01-01", false),
		mustAddBeneficiary(t, env.svc, profile.ID, "cunado", "1983-01-01", false),
	}

	for i := 0; i < 3; i++ {
		if _, err := env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
			FromBeneficiaryID: origins[i].ID,
			ToBeneficiaryID:   destinations[i].ID,
		}); err != nil {
			t.Fatalf("Failed to create transfer %d: %v", i+1, err)
		}
	}

	_, err := env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: origins[3].ID,
		ToBeneficiaryID:   destinations[3].ID,
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict for a fourth transfer, got %v", err)
	}
}

func TestDeleteBeneficiary_DeactivatesTransfers(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")
	spouse := mustAddBeneficiary(t, env.svc, profile.ID, "conyuge", "1985-01-01", false)
	nephew := mustAddBeneficiary(t, env.svc, profile.ID, "sobrino", "2000-01-01", false)
	grandchild := mustAddBeneficiary(t, env.svc, profile.ID, "nieto", "2020-01-01", false)

	if _, err := env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: spouse.ID,
		ToBeneficiaryID:   nephew.ID,
	}); err != nil {
		t.Fatalf("Failed to create transfer: %v", err)
	}

	if err := env.svc.DeleteBeneficiary(ctx, profile.ID, nephew.ID); err != nil {
		t.Fatalf("Failed to delete beneficiary: %v", err)
	}

	transfers, err := env.svc.ListTransfers(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Failed to list transfers: %v", err)
	}
	if len(transfers) != 0 {
		t.Errorf("Expected the transfer to be deactivated, got %d active", len(transfers))
	}

	// the origin's allowance is free again
	if _, err := env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: spouse.ID,
		ToBeneficiaryID:   grandchild.ID,
	}); err != nil {
		t.Errorf("Expected the origin to be reusable after the delete, got %v", err)
	}
}

func TestBeneficiaryIDsAreCaseInsensitive(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")
	child := mustAddBeneficiary(t, env.svc, profile.ID, "hijo", "2015-01-01", false)

	got, err := env.svc.CheckEligibility(ctx, profile.ID, strings.ToUpper(child.ID))
	if err != nil {
		t.Fatalf("Expected upper-case id to resolve, got %v", err)
	}
	if got.Beneficiary.ID != child.ID {
		t.Errorf("Expected %s, got %s", child.ID, got.Beneficiary.ID)
	}

	if err := env.svc.DeleteBeneficiary(ctx, profile.ID, strings.ToUpper(child.ID)); err != nil {
		t.Errorf("Expected upper-case id to delete, got %v", err)
	}
}

func TestCreateTransfer_NoNameBlocksTransfers(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")
	spouse := mustAddBeneficiary(t, env.svc, profile.ID, "conyuge", "1985-01-01", false)
	nephew := mustAddBeneficiary(t, env.svc, profile.ID, "sobrino", "2000-01-01", false)
	mustAddBeneficiary(t, env.svc, profile.ID, "no_name", "1990-01-01", false)

	_, err := env.svc.CreateTransfer(ctx, profile.ID, models.TransferRequest{
		FromBeneficiaryID: spouse.ID,
		ToBeneficiaryID:   nephew.ID,
	})
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Expected ErrConflict while a No Name holder is registered, got %v", err)
	}
}

func TestGetProfile_UsesCacheWhenEnabled(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")
	env.features.Enable(features.FeatureCacheEnabled)

	for i := 0; i < 3; i++ {
		if _, err := env.svc.GetProfile(ctx, profile.ID); err != nil {
			t.Fatalf("Failed to get profile: %v", err)
		}
	}

	if hits := testutil.ToFloat64(env.metrics.CacheLookups.WithLabelValues("hit")); hits != 2 {
		t.Errorf("Expected 2 cache hits, got %v", hits)
	}

	profile.MaritalStatus = models.MaritalSingle
	if _, err := env.svc.UpdateProfile(ctx, profile.ID, profileUpdate(profile)); err != nil {
		t.Fatalf("Failed to update profile: %v", err)
	}

	got, err := env.svc.GetProfile(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Failed to get profile: %v", err)
	}
	if got.MaritalStatus != models.MaritalSingle {
		t.Errorf("Expected the update to invalidate the cache, got %s", got.MaritalStatus)
	}
}

func TestListBeneficiaries_UsesCacheWhenEnabled(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()
	profile := mustRegister(t, env.svc, "A-1")
	env.features.Enable(features.FeatureCacheEnabled)
	key := cache.BeneficiariesKey(profile.ID)

	child := mustAddBeneficiary(t, env.svc, profile.ID, "hijo", "2015-01-01", false)

	list, err := env.svc.ListBeneficiaries(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Failed to list beneficiaries: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 beneficiary, got %d", len(list))
	}
	if _, err := env.cache.Get(ctx, key); err != nil {
		t.Fatalf("Expected the list to be cached, got %v", err)
	}

	list, err = env.svc.ListBeneficiaries(ctx, profile.ID)
	if err != nil || len(list) != 1 || list[0].ID != child.ID {
		t.Fatalf("Expected the cached list to hold the child, got %+v, %v", list, err)
	}
	if !list[0].BirthDate.Equal(child.BirthDate.Time) {
		t.Errorf("Expected birth date %s, got %s", child.BirthDate, list[0].BirthDate)
	}

	mustAddBeneficiary(t, env.svc, profile.ID, "padre", "1960-01-01", false)
	if _, err := env.cache.Get(ctx, key); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("Expected a new beneficiary to invalidate the list, got %v", err)
	}

	list, err = env.svc.ListBeneficiaries(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Failed to list beneficiaries: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 beneficiaries, got %d", len(list))
	}

	if err := env.svc.DeleteBeneficiary(ctx, profile.ID, child.ID); err != nil {
		t.Fatalf("Failed to delete beneficiary: %v", err)
	}
	list, err = env.svc.ListBeneficiaries(ctx, profile.ID)
	if err != nil {
		t.Fatalf("Failed to list beneficiaries: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("Expected 1 beneficiary after the delete, got %d", len(list))
	}
}
