package tagsync_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"arremsync/internal/services"
	"arremsync/internal/tagsync"
)

func radarrInstance(number int, arr tagsync.ArrGateway) tagsync.Instance {
	return tagsync.Instance{
		Number:    number,
		Name:      "Radarr " + string(rune('0'+number)),
		ArrType:   "radarr",
		BaseURL:   "http://radarr",
		HasAPIKey: true,
		Gateway:   arr,
	}
}

func TestCoordinatorConvergesToUnion(t *testing.T) {
	for _, order := range [][]string{{"A", "B"}, {"B", "A"}} {
		media := newFakeMedia(movie("e1", "100"))
		var instances []tagsync.Instance
		for i, label := range order {
			arr := &fakeArr{
				tags:  []tagsync.ArrTag{{ID: 1, Label: label}},
				items: []tagsync.ArrItem{{Title: "Same Film", TMDbID: 100, TagIDs: []int{1}}},
			}
			instances = append(instances, radarrInstance(i+1, arr))
		}
		coord, err := tagsync.NewCoordinator(media, instances)
		if err != nil {
			t.Fatalf("NewCoordinator returned error: %v", err)
		}

		report, err := coord.SyncAll(context.Background(), 50)
		if err != nil {
			t.Fatalf("SyncAll returned error: %v", err)
		}
		got := media.store["e1"].Sorted()
		if strings.Join(got, ",") != "A,B" {
			t.Fatalf("order %v: expected union {A,B}, got %v", order, got)
		}
		if report.Totals.SuccessfulSyncs != 2 || report.Failed() {
			t.Fatalf("unexpected totals %+v", report.Totals)
		}
		if media.movieLists != 1 {
			t.Fatalf("expected shared index to list movies once, got %d", media.movieLists)
		}
	}
}

func TestCoordinatorProbesEachServiceOnce(t *testing.T) {
	media := newFakeMedia(movie("e1", "100"))
	arrs := []*fakeArr{{}, {}, {}}
	var instances []tagsync.Instance
	for i, arr := range arrs {
		instances = append(instances, radarrInstance(i+1, arr))
	}
	coord, err := tagsync.NewCoordinator(media, instances)
	if err != nil {
		t.Fatalf("NewCoordinator returned error: %v", err)
	}

	report, err := coord.SyncAll(context.Background(), 50)
	if err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}
	if media.probes != 1 {
		t.Fatalf("expected emby to be probed once, got %d", media.probes)
	}
	for i, arr := range arrs {
		if arr.probes != 1 {
			t.Fatalf("expected instance %d to be probed once, got %d", i+1, arr.probes)
		}
	}
	if report.Totals.Errors == nil || len(report.Totals.Errors) != 0 {
		t.Fatalf("expected empty non-nil errors, got %#v", report.Totals.Errors)
	}
	for _, inst := range report.Instances {
		if inst.Stats == nil || inst.Stats.Errors == nil {
			t.Fatalf("expected non-nil instance errors, got %+v", inst)
		}
	}
}

func TestCoordinatorAbortsOnProbeFailure(t *testing.T) {
	media := newFakeMedia()
	good := &fakeArr{}
	bad := &fakeArr{probeErr: errors.New("refused")}
	sonarr := tagsync.Instance{Number: 2, Name: "Sonarr", ArrType: "sonarr", Gateway: bad}

	coord, err := tagsync.NewCoordinator(media, []tagsync.Instance{radarrInstance(1, good), sonarr})
	if err != nil {
		t.Fatalf("NewCoordinator returned error: %v", err)
	}
	report, err := coord.SyncAll(context.Background(), 0)
	if report != nil {
		t.Fatalf("expected no report, got %+v", report)
	}
	var connErr *tagsync.ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if strings.Join(connErr.Failed, ",") != "sonarr_2" {
		t.Fatalf("expected sonarr_2 to be listed, got %v", connErr.Failed)
	}
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatal("expected ConnectionError to match ErrUnavailable")
	}
	if good.lists != 0 {
		t.Fatal("expected no instance processing after failed probe")
	}
}

func TestCoordinatorContinuesAfterInstanceFailure(t *testing.T) {
	media := newFakeMedia(movie("e1", "100"))
	broken := &fakeArr{listErr: errors.New("radarr 500")}
	healthy := &fakeArr{
		tags:  []tagsync.ArrTag{{ID: 1, Label: "A"}},
		items: []tagsync.ArrItem{{Title: "Film", TMDbID: 100, TagIDs: []int{1}}},
	}
	coord, err := tagsync.NewCoordinator(media, []tagsync.Instance{radarrInstance(1, broken), radarrInstance(2, healthy)})
	if err != nil {
		t.Fatalf("NewCoordinator returned error: %v", err)
	}

	report, err := coord.SyncAll(context.Background(), 50)
	if err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}
	if report.TotalInstances != 2 || report.FailedInstances != 1 {
		t.Fatalf("unexpected instance counts %+v", report)
	}
	first := report.Instances[0]
	if first.Stats != nil || !strings.Contains(first.Error, "radarr 500") {
		t.Fatalf("expected first instance error record, got %+v", first)
	}
	second := report.Instances[1]
	if second.Stats == nil || second.Stats.SuccessfulSyncs != 1 {
		t.Fatalf("expected second instance to sync, got %+v", second)
	}
	if len(report.Totals.Errors) != 1 || !strings.HasPrefix(report.Totals.Errors[0], "Failed to sync Radarr 1: ") {
		t.Fatalf("expected instance error in totals, got %v", report.Totals.Errors)
	}
	if !report.Failed() {
		t.Fatal("expected report to be marked failed")
	}
}

func TestCoordinatorAggregatesTotals(t *testing.T) {
	media := newFakeMedia(movie("e1", "1"), movie("e2", "2", "A"))
	arr1 := &fakeArr{
		tags:  []tagsync.ArrTag{{ID: 1, Label: "A"}},
		items: []tagsync.ArrItem{{Title: "One", TMDbID: 1, TagIDs: []int{1}}, {Title: "Gone", TMDbID: 9, TagIDs: []int{1}}},
	}
	arr2 := &fakeArr{
		tags:  []tagsync.ArrTag{{ID: 1, Label: "A"}},
		items: []tagsync.ArrItem{{Title: "Two", TMDbID: 2, TagIDs: []int{1}}, {Title: "Bare", TMDbID: 1}},
	}
	media.addErr = errRejected
	coord, err := tagsync.NewCoordinator(media, []tagsync.Instance{radarrInstance(1, arr1), radarrInstance(2, arr2)})
	if err != nil {
		t.Fatalf("NewCoordinator returned error: %v", err)
	}

	report, err := coord.SyncAll(context.Background(), 50)
	if err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}
	totals := report.Totals
	if totals.TotalItems != 4 || totals.ProcessedItems != 4 {
		t.Fatalf("unexpected item totals %+v", totals)
	}
	if totals.FailedSyncs != 1 || totals.NotInMediaServer != 1 || totals.AlreadySynced != 1 || totals.NoTagsToSync != 1 {
		t.Fatalf("unexpected outcome totals %+v", totals)
	}
	if len(totals.Errors) != 1 || !strings.Contains(totals.Errors[0], "Failed to update tags in Emby") {
		t.Fatalf("unexpected errors %v", totals.Errors)
	}
}

func TestCoordinatorTestConnections(t *testing.T) {
	media := newFakeMedia()
	media.probeErr = errors.New("401")
	coord, err := tagsync.NewCoordinator(media, []tagsync.Instance{
		radarrInstance(1, &fakeArr{}),
		{Number: 2, Name: "Sonarr 2", ArrType: "sonarr", Gateway: &fakeArr{}},
	})
	if err != nil {
		t.Fatalf("NewCoordinator returned error: %v", err)
	}

	statuses := coord.TestConnections(context.Background())
	got := tagsync.StatusMap(statuses)
	want := map[string]bool{"emby": false, "radarr_1": true, "sonarr_2": true}
	for name, ok := range want {
		if got[name] != ok {
			t.Fatalf("status[%s] = %v, want %v (all: %v)", name, got[name], ok, got)
		}
	}
	if statuses[0].Service != "emby" || statuses[0].Error == "" {
		t.Fatalf("expected emby first with error, got %+v", statuses[0])
	}
	if media.probes != 1 {
		t.Fatalf("expected emby probed once, got %d", media.probes)
	}
}

func TestCoordinatorRejectsUnknownArrType(t *testing.T) {
	_, err := tagsync.NewCoordinator(newFakeMedia(), []tagsync.Instance{{Number: 1, ArrType: "lidarr", Gateway: &fakeArr{}}})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCoordinatorResetClearsCaches(t *testing.T) {
	media := newFakeMedia(movie("e1", "1"))
	arr := &fakeArr{tags: []tagsync.ArrTag{{ID: 1, Label: "A"}}, items: []tagsync.ArrItem{{Title: "One", TMDbID: 1, TagIDs: []int{1}}}}
	coord, err := tagsync.NewCoordinator(media, []tagsync.Instance{radarrInstance(1, arr)}, tagsync.WithDryRun(true))
	if err != nil {
		t.Fatalf("NewCoordinator returned error: %v", err)
	}
	ctx := context.Background()
	if _, err := coord.SyncAll(ctx, 0); err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}
	coord.Reset()
	if _, err := coord.SyncAll(ctx, 0); err != nil {
		t.Fatalf("SyncAll returned error: %v", err)
	}
	if media.movieLists != 2 || arr.tagLists != 2 {
		t.Fatalf("expected caches refetched after reset, got movies=%d tags=%d", media.movieLists, arr.tagLists)
	}
}
