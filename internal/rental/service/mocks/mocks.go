// Package mocks holds gomock doubles for the rental service ports.
//
// The file is kept in mockgen's layout for the go:generate directive in
// service/saga_test.go; running go generate replaces it with generated output.
package mocks

import (
	context "context"
	reflect "reflect"

	models "briq/internal/rental/models"
	models0 "briq/internal/trust/models"
	gomock "go.uber.org/mock/gomock"
)

// MockLedger is a mock of Ledger interface.
type MockLedger struct {
	ctrl     *gomock.Controller
	recorder *MockLedgerMockRecorder
	isgomock struct{}
}

// MockLedgerMockRecorder is the mock recorder for MockLedger.
type MockLedgerMockRecorder struct {
	mock *MockLedger
}

// NewMockLedger creates a new mock instance.
func NewMockLedger(ctrl *gomock.Controller) *MockLedger {
	mock := &MockLedger{ctrl: ctrl}
	mock.recorder = &MockLedgerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockLedger) EXPECT() *MockLedgerMockRecorder {
	return m.recorder
}

// ApplyRental mocks base method.
func (m *MockLedger) ApplyRental(ctx context.Context, address string, side models0.Side, entry models0.RentalEntry) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ApplyRental", ctx, address, side, entry)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ApplyRental indicates an expected call of ApplyRental.
func (mr *MockLedgerMockRecorder) ApplyRental(ctx, address, side, entry any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ApplyRental", reflect.TypeOf((*MockLedger)(nil).ApplyRental), ctx, address, side, entry)
}

// EndRental mocks base method.
func (m *MockLedger) EndRental(ctx context.Context, address string, side models0.Side, agreementHash string, term models0.Termination) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "EndRental", ctx, address, side, agreementHash, term)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// EndRental indicates an expected call of EndRental.
func (mr *MockLedgerMockRecorder) EndRental(ctx, address, side, agreementHash, term any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "EndRental", reflect.TypeOf((*MockLedger)(nil).EndRental), ctx, address, side, agreementHash, term)
}

// RemoveRental mocks base method.
func (m *MockLedger) RemoveRental(ctx context.Context, address string, agreementHash string) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RemoveRental", ctx, address, agreementHash)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RemoveRental indicates an expected call of RemoveRental.
func (mr *MockLedgerMockRecorder) RemoveRental(ctx, address, agreementHash any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RemoveRental", reflect.TypeOf((*MockLedger)(nil).RemoveRental), ctx, address, agreementHash)
}

// MockRegistry is a mock of Registry interface.
type MockRegistry struct {
	ctrl     *gomock.Controller
	recorder *MockRegistryMockRecorder
	isgomock struct{}
}

// MockRegistryMockRecorder is the mock recorder for MockRegistry.
type MockRegistryMockRecorder struct {
	mock *MockRegistry
}

// NewMockRegistry creates a new mock instance.
func NewMockRegistry(ctrl *gomock.Controller) *MockRegistry {
	mock := &MockRegistry{ctrl: ctrl}
	mock.recorder = &MockRegistryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRegistry) EXPECT() *MockRegistryMockRecorder {
	return m.recorder
}

// FindByHash mocks base method.
func (m *MockRegistry) FindByHash(ctx context.Context, hash string) (*models.Agreement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindByHash", ctx, hash)
	ret0, _ := ret[0].(*models.Agreement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindByHash indicates an expected call of FindByHash.
func (mr *MockRegistryMockRecorder) FindByHash(ctx, hash any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindByHash", reflect.TypeOf((*MockRegistry)(nil).FindByHash), ctx, hash)
}

// FindHolding mocks base method.
func (m *MockRegistry) FindHolding(ctx context.Context, propertyID string) (*models.Agreement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindHolding", ctx, propertyID)
	ret0, _ := ret[0].(*models.Agreement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindHolding indicates an expected call of FindHolding.
func (mr *MockRegistryMockRecorder) FindHolding(ctx, propertyID any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindHolding", reflect.TypeOf((*MockRegistry)(nil).FindHolding), ctx, propertyID)
}

// ListByLandlord mocks base method.
func (m *MockRegistry) ListByLandlord(ctx context.Context, landlord string) ([]*models.Agreement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListByLandlord", ctx, landlord)
	ret0, _ := ret[0].([]*models.Agreement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListByLandlord indicates an expected call of ListByLandlord.
func (mr *MockRegistryMockRecorder) ListByLandlord(ctx, landlord any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListByLandlord", reflect.TypeOf((*MockRegistry)(nil).ListByLandlord), ctx, landlord)
}

// ListPending mocks base method.
func (m *MockRegistry) ListPending(ctx context.Context) ([]*models.Agreement, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListPending", ctx)
	ret0, _ := ret[0].([]*models.Agreement)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListPending indicates an expected call of ListPending.
func (mr *MockRegistryMockRecorder) ListPending(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListPending", reflect.TypeOf((*MockRegistry)(nil).ListPending), ctx)
}

// Reserve mocks base method.
func (m *MockRegistry) Reserve(ctx context.Context, a *models.Agreement) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Reserve", ctx, a)
	ret0, _ := ret[0].(error)
	return ret0
}

// Reserve indicates an expected call of Reserve.
func (mr *MockRegistryMockRecorder) Reserve(ctx, a any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Reserve", reflect.TypeOf((*MockRegistry)(nil).Reserve), ctx, a)
}

// Update mocks base method.
func (m *MockRegistry) Update(ctx context.Context, a *models.Agreement) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Update", ctx, a)
	ret0, _ := ret[0].(error)
	return ret0
}

// Update indicates an expected call of Update.
func (mr *MockRegistryMockRecorder) Update(ctx, a any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Update", reflect.TypeOf((*MockRegistry)(nil).Update), ctx, a)
}

// MockProjections is a mock of Projections interface.
type MockProjections struct {
	ctrl     *gomock.Controller
	recorder *MockProjectionsMockRecorder
	isgomock struct{}
}

// MockProjectionsMockRecorder is the mock recorder for MockProjections.
type MockProjectionsMockRecorder struct {
	mock *MockProjections
}

// NewMockProjections creates a new mock instance.
func NewMockProjections(ctrl *gomock.Controller) *MockProjections {
	mock := &MockProjections{ctrl: ctrl}
	mock.recorder = &MockProjectionsMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockProjections) EXPECT() *MockProjectionsMockRecorder {
	return m.recorder
}

// Refresh mocks base method.
func (m *MockProjections) Refresh(ctx context.Context, address string) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Refresh", ctx, address)
	ret0, _ := ret[0].(error)
	return ret0
}

// Refresh indicates an expected call of Refresh.
func (mr *MockProjectionsMockRecorder) Refresh(ctx, address any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Refresh", reflect.TypeOf((*MockProjections)(nil).Refresh), ctx, address)
}
