package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/edvin/softsso/internal/softaculous"
)

type stubResolver struct {
	desc softaculous.Descriptor
	err  error
	seen []string
}

func (s *stubResolver) Resolve(_ context.Context, serviceID string) (softaculous.Descriptor, error) {
	s.seen = append(s.seen, serviceID)
	return s.desc, s.err
}

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) ListInstallations(ctx context.Context) ([]softaculous.Installation, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]softaculous.Installation)
	return list, args.Error(1)
}

func (m *mockBackend) ScanInstallations(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBackend) Install(ctx context.Context, params softaculous.InstallParams) (softaculous.InstallResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(softaculous.InstallResult), args.Error(1)
}

func (m *mockBackend) Remove(ctx context.Context, insID string) error {
	return m.Called(ctx, insID).Error(0)
}

func (m *mockBackend) Clone(ctx context.Context, params softaculous.CloneParams) (softaculous.CloneResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(softaculous.CloneResult), args.Error(1)
}

func (m *mockBackend) GetAutoUpgrade(ctx context.Context, insID string) (softaculous.AutoUpgrade, error) {
	args := m.Called(ctx, insID)
	return args.Get(0).(softaculous.AutoUpgrade), args.Error(1)
}

func (m *mockBackend) SetAutoUpgrade(ctx context.Context, insID string, settings softaculous.AutoUpgrade) error {
	return m.Called(ctx, insID, settings).Error(0)
}

func (m *mockBackend) Upgrade(ctx context.Context, insID string) (softaculous.UpgradeResult, error) {
	args := m.Called(ctx, insID)
	return args.Get(0).(softaculous.UpgradeResult), args.Error(1)
}

func (m *mockBackend) CheckForUpdates(ctx context.Context, insID string) (softaculous.UpdateStatus, error) {
	args := m.Called(ctx, insID)
	return args.Get(0).(softaculous.UpdateStatus), args.Error(1)
}

func (m *mockBackend) LatestVersion(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) SignOnURL(ctx context.Context, insID string) (string, error) {
	args := m.Called(ctx, insID)
	return args.String(0), args.Error(1)
}

func (m *mockBackend) ListPlugins(ctx context.Context, insID string) ([]softaculous.Extension, error) {
	args := m.Called(ctx, insID)
	list, _ := args.Get(0).([]softaculous.Extension)
	return list, args.Error(1)
}

func (m *mockBackend) ListThemes(ctx context.Context, insID string) ([]softaculous.Extension, error) {
	args := m.Called(ctx, insID)
	list, _ := args.Get(0).([]softaculous.Extension)
	return list, args.Error(1)
}

func (m *mockBackend) TogglePlugin(ctx context.Context, insID, slug string, op softaculous.PluginOp) error {
	return m.Called(ctx, insID, slug, op).Error(0)
}

func (m *mockBackend) DeletePlugin(ctx context.Context, insID, slug string) error {
	return m.Called(ctx, insID, slug).Error(0)
}

func (m *mockBackend) ActivateTheme(ctx context.Context, insID, slug string) error {
	return m.Called(ctx, insID, slug).Error(0)
}

func (m *mockBackend) DeleteTheme(ctx context.Context, insID, slug string) error {
	return m.Called(ctx, insID, slug).Error(0)
}

func (m *mockBackend) UploadPlugin(ctx context.Context, insID, filename string, content []byte) error {
	return m.Called(ctx, insID, filename, content).Error(0)
}
