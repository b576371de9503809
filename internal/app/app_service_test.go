package app

import (
	"context"
	"errors"
	"testing"

	"github.com/tbellembois/chimitheque-db-sub000/internal/core"
)

type fakePermissions struct {
	core.PermissionService
	allow bool
	asked []string
}

func (f *fakePermissions) HasAccess(ctx context.Context, personID int, itemName, level string, entityID int) (bool, error) {
	f.asked = append(f.asked, itemName+"/"+level)
	return f.allow, nil
}

type fakeLocations struct {
	core.StoreLocationService
	mutations int
}

func (f *fakeLocations) GetStoreLocation(ctx context.Context, id int) (*core.StoreLocation, error) {
	return &core.StoreLocation{ID: id, Name: "shelf", Entity: 1}, nil
}

func (f *fakeLocations) CreateStoreLocation(ctx context.Context, loc core.StoreLocation) (int, error) {
	f.mutations++
	return 7, nil
}

func (f *fakeLocations) UpdateStoreLocation(ctx context.Context, loc core.StoreLocation) error {
	f.mutations++
	return nil
}

func (f *fakeLocations) Reparent(ctx context.Context, id int, newParent *int) error {
	f.mutations++
	return nil
}

func (f *fakeLocations) DeleteStoreLocation(ctx context.Context, id int) error {
	f.mutations++
	return nil
}

type fakeStorages struct {
	core.StorageService
	mutations int
}

func (f *fakeStorages) GetStorages(ctx context.Context, flt core.Filter, personID int) ([]core.Storage, int, error) {
	if flt.StorageArchive {
		return nil, 0, nil
	}
	return []core.Storage{{ID: flt.Ids[0], EntityID: 1}}, 1, nil
}

func (f *fakeStorages) CreateStorages(ctx context.Context, st core.Storage, nbItems int, identicalBarecode bool) ([]int, error) {
	f.mutations++
	return []int{1}, nil
}

func (f *fakeStorages) UpdateStorage(ctx context.Context, st core.Storage) error {
	f.mutations++
	return nil
}

func (f *fakeStorages) DeleteStorage(ctx context.Context, id int) error {
	f.mutations++
	return nil
}

func (f *fakeStorages) ArchiveStorage(ctx context.Context, id int) error {
	f.mutations++
	return nil
}

func (f *fakeStorages) UnarchiveStorage(ctx context.Context, id int) error {
	f.mutations++
	return nil
}

func mutationCalls(svc ApplicationService) []struct {
	name string
	call func(context.Context) error
} {
	return []struct {
		name string
		call func(context.Context) error
	}{
		{"CreateStoreLocation", func(ctx context.Context) error {
			_, err := svc.CreateStoreLocation(ctx, StoreLocationRequest{Name: "shelf", Entity: 1, Person: 9})
			return err
		}},
		{"UpdateStoreLocation", func(ctx context.Context) error {
			return svc.UpdateStoreLocation(ctx, StoreLocationRequest{ID: 1, Name: "shelf", Person: 9})
		}},
		{"ReparentStoreLocation", func(ctx context.Context) error {
			return svc.ReparentStoreLocation(ctx, 1, nil, 9)
		}},
		{"DeleteStoreLocation", func(ctx context.Context) error {
			return svc.DeleteStoreLocation(ctx, 1, 9)
		}},
		{"CreateStorages", func(ctx context.Context) error {
			_, err := svc.CreateStorages(ctx, CreateStorageRequest{Product: 1, Person: 9, StoreLocation: 1})
			return err
		}},
		{"UpdateStorage", func(ctx context.Context) error {
			return svc.UpdateStorage(ctx, UpdateStorageRequest{ID: 5, Product: 1, Person: 9, StoreLocation: 1})
		}},
		{"DeleteStorage", func(ctx context.Context) error {
			return svc.DeleteStorage(ctx, 5, 9)
		}},
		{"ArchiveStorage", func(ctx context.Context) error {
			return svc.ArchiveStorage(ctx, 5, 9)
		}},
		{"UnarchiveStorage", func(ctx context.Context) error {
			return svc.UnarchiveStorage(ctx, 5, 9)
		}},
	}
}

func TestMutationsRequireWriteGrant(t *testing.T) {
	perms := &fakePermissions{allow: false}
	locations := &fakeLocations{}
	storages := &fakeStorages{}
	svc := NewAppService(nil, perms, nil, locations, storages, nil, nil, nil)
	ctx := context.Background()

	for _, tc := range mutationCalls(svc) {
		if err := tc.call(ctx); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("%s without grant = %v, want ErrNotFound", tc.name, err)
		}
	}
	if locations.mutations != 0 || storages.mutations != 0 {
		t.Errorf("denied mutations reached the services: locations %d, storages %d",
			locations.mutations, storages.mutations)
	}
}

func TestMutationsProceedWithGrant(t *testing.T) {
	perms := &fakePermissions{allow: true}
	locations := &fakeLocations{}
	storages := &fakeStorages{}
	svc := NewAppService(nil, perms, nil, locations, storages, nil, nil, nil)
	ctx := context.Background()

	calls := mutationCalls(svc)
	for _, tc := range calls {
		if err := tc.call(ctx); err != nil {
			t.Errorf("%s with grant failed: %v", tc.name, err)
		}
	}
	if got := locations.mutations + storages.mutations; got != len(calls) {
		t.Errorf("mutations reaching the services = %d, want %d", got, len(calls))
	}
	if len(perms.asked) != len(calls) {
		t.Fatalf("permission checks = %d, want %d", len(perms.asked), len(calls))
	}
	for i, tc := range calls {
		want := "storages/w"
		if i < 4 {
			want = "storelocations/w"
		}
		if perms.asked[i] != want {
			t.Errorf("%s checked %q, want %q", tc.name, perms.asked[i], want)
		}
	}
}
