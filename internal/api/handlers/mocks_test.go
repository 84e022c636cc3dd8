package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"swapp/api/internal/geo"
	"swapp/api/internal/models"
	"swapp/api/internal/services"
	"swapp/api/internal/utils"
)

// first returns args.Get(0) as T, or T's zero value when the mock returned nil.
func first[T any](args mock.Arguments) T {
	var zero T
	if args.Get(0) == nil {
		return zero
	}
	return args.Get(0).(T)
}

// MockCatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	return first[[]models.Category](args), args.Error(1)
}
func (m *MockCatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	args := m.Called(ctx, name)
	return first[*models.Category](args), args.Error(1)
}
func (m *MockCatalogService) ListSubcategories(ctx context.Context, categoryID *utils.SixID) ([]models.Subcategory, error) {
	args := m.Called(ctx, categoryID)
	return first[[]models.Subcategory](args), args.Error(1)
}
func (m *MockCatalogService) CreateSubcategory(ctx context.Context, categoryID utils.SixID, name string) (*models.Subcategory, error) {
	args := m.Called(ctx, categoryID, name)
	return first[*models.Subcategory](args), args.Error(1)
}
func (m *MockCatalogService) FindSubcategory(ctx context.Context, id utils.SixID) (*models.Subcategory, error) {
	args := m.Called(ctx, id)
	return first[*models.Subcategory](args), args.Error(1)
}
func (m *MockCatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	return first[[]models.Tag](args), args.Error(1)
}
func (m *MockCatalogService) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	args := m.Called(ctx, name)
	return first[*models.Tag](args), args.Error(1)
}
func (m *MockCatalogService) CategoriesByIDs(ctx context.Context, ids []utils.SixID) ([]models.Category, error) {
	args := m.Called(ctx, ids)
	return first[[]models.Category](args), args.Error(1)
}
func (m *MockCatalogService) TagsByIDs(ctx context.Context, ids []utils.SixID) ([]models.Tag, error) {
	args := m.Called(ctx, ids)
	return first[[]models.Tag](args), args.Error(1)
}
func (m *MockCatalogService) SubcategoryIDs(ctx context.Context, categoryIDs []utils.SixID) ([]utils.SixID, error) {
	args := m.Called(ctx, categoryIDs)
	return first[[]utils.SixID](args), args.Error(1)
}

// MockItemService
type MockItemService struct {
	mock.Mock
}

func (m *MockItemService) Create(ctx context.Context, ownerID utils.SixID, in services.ItemInput) (*models.Item, error) {
	args := m.Called(ctx, ownerID, in)
	return first[*models.Item](args), args.Error(1)
}
func (m *MockItemService) Find(ctx context.Context, itemID utils.SixID) (*models.Item, error) {
	args := m.Called(ctx, itemID)
	return first[*models.Item](args), args.Error(1)
}
func (m *MockItemService) Update(ctx context.Context, ownerID, itemID utils.SixID, in services.ItemInput) (*models.Item, error) {
	args := m.Called(ctx, ownerID, itemID, in)
	return first[*models.Item](args), args.Error(1)
}
func (m *MockItemService) Delete(ctx context.Context, ownerID, itemID utils.SixID) error {
	args := m.Called(ctx, ownerID, itemID)
	return args.Error(0)
}
func (m *MockItemService) ListByOwner(ctx context.Context, ownerID utils.SixID, availableOnly bool) ([]models.Item, error) {
	args := m.Called(ctx, ownerID, availableOnly)
	return first[[]models.Item](args), args.Error(1)
}
func (m *MockItemService) View(ctx context.Context, userID, itemID utils.SixID) (*models.Item, error) {
	args := m.Called(ctx, userID, itemID)
	return first[*models.Item](args), args.Error(1)
}
func (m *MockItemService) FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.Item, error) {
	args := m.Called(ctx, ids)
	return first[[]models.Item](args), args.Error(1)
}
func (m *MockItemService) ListAvailableExcept(ctx context.Context, userID utils.SixID) ([]models.Item, error) {
	args := m.Called(ctx, userID)
	return first[[]models.Item](args), args.Error(1)
}

// MockCandidateService
type MockCandidateService struct {
	mock.Mock
}

func (m *MockCandidateService) RecommendedItems(ctx context.Context, userID utils.SixID) ([]models.Item, error) {
	args := m.Called(ctx, userID)
	return first[[]models.Item](args), args.Error(1)
}
func (m *MockCandidateService) MatchingItems(ctx context.Context, userID, itemID utils.SixID) ([]models.Item, error) {
	args := m.Called(ctx, userID, itemID)
	return first[[]models.Item](args), args.Error(1)
}
func (m *MockCandidateService) Overview(ctx context.Context, userID utils.SixID) (*services.Overview, error) {
	args := m.Called(ctx, userID)
	return first[*services.Overview](args), args.Error(1)
}
func (m *MockCandidateService) ItemMatches(ctx context.Context, userID, itemID utils.SixID) (*services.ItemMatches, error) {
	args := m.Called(ctx, userID, itemID)
	return first[*services.ItemMatches](args), args.Error(1)
}

// MockConflictService
type MockConflictService struct {
	mock.Mock
}

func (m *MockConflictService) Check(ctx context.Context, userID utils.SixID) (*services.ConflictReport, error) {
	args := m.Called(ctx, userID)
	return first[*services.ConflictReport](args), args.Error(1)
}
func (m *MockConflictService) Resolve(ctx context.Context, userID utils.SixID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockNegotiationService
type MockNegotiationService struct {
	mock.Mock
}

func (m *MockNegotiationService) Propose(ctx context.Context, userID, userItemID, otherItemID utils.SixID) (*models.Transaction, error) {
	args := m.Called(ctx, userID, userItemID, otherItemID)
	return first[*models.Transaction](args), args.Error(1)
}
func (m *MockNegotiationService) LookupOffer(ctx context.Context, ref services.OfferRef) (*services.OfferLookup, error) {
	args := m.Called(ctx, ref)
	return first[*services.OfferLookup](args), args.Error(1)
}
func (m *MockNegotiationService) Respond(ctx context.Context, userID utils.SixID, action services.Action, ref services.OfferRef) (*services.RespondResult, error) {
	args := m.Called(ctx, userID, action, ref)
	return first[*services.RespondResult](args), args.Error(1)
}
func (m *MockNegotiationService) Pending(ctx context.Context, userID utils.SixID) ([]models.PendingTransaction, error) {
	args := m.Called(ctx, userID)
	return first[[]models.PendingTransaction](args), args.Error(1)
}
func (m *MockNegotiationService) PendingCount(ctx context.Context, userID utils.SixID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
func (m *MockNegotiationService) History(ctx context.Context, userID utils.SixID) ([]services.TransactionView, error) {
	args := m.Called(ctx, userID)
	return first[[]services.TransactionView](args), args.Error(1)
}
func (m *MockNegotiationService) SwapHistory(ctx context.Context, userID utils.SixID) ([]models.SwapHistory, error) {
	args := m.Called(ctx, userID)
	return first[[]models.SwapHistory](args), args.Error(1)
}
func (m *MockNegotiationService) IsValid(ctx context.Context, tx *models.Transaction) (bool, error) {
	args := m.Called(ctx, tx)
	return args.Bool(0), args.Error(1)
}

// MockNotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, userID utils.SixID) ([]models.Notification, error) {
	args := m.Called(ctx, userID)
	return first[[]models.Notification](args), args.Error(1)
}
func (m *MockNotificationService) MarkRead(ctx context.Context, userID, notificationID utils.SixID) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}
func (m *MockNotificationService) Detail(ctx context.Context, userID, notificationID utils.SixID) (*services.NotificationDetail, error) {
	args := m.Called(ctx, userID, notificationID)
	return first[*services.NotificationDetail](args), args.Error(1)
}

// MockThreadService
type MockThreadService struct {
	mock.Mock
}

func (m *MockThreadService) List(ctx context.Context, userID utils.SixID) ([]services.ThreadSummary, error) {
	args := m.Called(ctx, userID)
	return first[[]services.ThreadSummary](args), args.Error(1)
}
func (m *MockThreadService) Detail(ctx context.Context, userID, threadID utils.SixID) (*services.ThreadDetail, error) {
	args := m.Called(ctx, userID, threadID)
	return first[*services.ThreadDetail](args), args.Error(1)
}
func (m *MockThreadService) GetOrCreate(ctx context.Context, userID, transactionID utils.SixID) (*models.Thread, error) {
	args := m.Called(ctx, userID, transactionID)
	return first[*models.Thread](args), args.Error(1)
}
func (m *MockThreadService) SendMessage(ctx context.Context, userID, threadID utils.SixID, text string) (*models.Message, error) {
	args := m.Called(ctx, userID, threadID, text)
	return first[*models.Message](args), args.Error(1)
}

// MockProfileService
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) CreateUser(ctx context.Context, name, phone string) (*models.User, error) {
	args := m.Called(ctx, name, phone)
	return first[*models.User](args), args.Error(1)
}
func (m *MockProfileService) FindByID(ctx context.Context, userID utils.SixID) (*models.User, error) {
	args := m.Called(ctx, userID)
	return first[*models.User](args), args.Error(1)
}
func (m *MockProfileService) UpdateProfile(ctx context.Context, userID utils.SixID, upd services.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, userID, upd)
	return first[*models.User](args), args.Error(1)
}
func (m *MockProfileService) ChangeLocation(ctx context.Context, userID utils.SixID, p geo.Point, label string) (*models.User, error) {
	args := m.Called(ctx, userID, p, label)
	return first[*models.User](args), args.Error(1)
}
func (m *MockProfileService) StoreDevice(ctx context.Context, userID utils.SixID, token, platform string) (*models.PushDevice, error) {
	args := m.Called(ctx, userID, token, platform)
	return first[*models.PushDevice](args), args.Error(1)
}
func (m *MockProfileService) FindDevice(ctx context.Context, userID utils.SixID) (*models.PushDevice, error) {
	args := m.Called(ctx, userID)
	return first[*models.PushDevice](args), args.Error(1)
}
func (m *MockProfileService) DisplayName(ctx context.Context, userID utils.SixID) string {
	args := m.Called(ctx, userID)
	return args.String(0)
}

// MockPreferenceService
type MockPreferenceService struct {
	mock.Mock
}

func (m *MockPreferenceService) GetPreferences(ctx context.Context, userID utils.SixID) (*services.Preferences, error) {
	args := m.Called(ctx, userID)
	return first[*services.Preferences](args), args.Error(1)
}
func (m *MockPreferenceService) ReplacePreferences(ctx context.Context, userID utils.SixID, upd services.PreferenceUpdate) (*services.Preferences, error) {
	args := m.Called(ctx, userID, upd)
	return first[*services.Preferences](args), args.Error(1)
}

var (
	_ services.ICatalogService      = (*MockCatalogService)(nil)
	_ services.IItemService         = (*MockItemService)(nil)
	_ services.ICandidateService    = (*MockCandidateService)(nil)
	_ services.IConflictService     = (*MockConflictService)(nil)
	_ services.INegotiationService  = (*MockNegotiationService)(nil)
	_ services.INotificationService = (*MockNotificationService)(nil)
	_ services.IThreadService       = (*MockThreadService)(nil)
	_ services.IProfileService      = (*MockProfileService)(nil)
	_ services.IPreferenceService   = (*MockPreferenceService)(nil)
)
