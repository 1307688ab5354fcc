package docker

import (
	"bufio"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/portside-sh/portside/internal/models"
)

func TestMockClientListsOnlyRunning(t *testing.T) {
	t.Parallel()

	m := NewMockClient()
	ctx := context.Background()

	containers, err := m.ListRunningContainers(ctx)
	if err != nil {
		t.Fatalf("ListRunningContainers: %v", err)
	}
	for _, c := range containers {
		if c.Status != "running" {
			t.Errorf("container %s has status %q in a running-only listing", c.Name, c.Status)
		}
	}
	if len(containers) != 1 {
		t.Fatalf("got %d running containers, want 1", len(containers))
	}
}

func TestMockClientLifecycle(t *testing.T) {
	t.Parallel()

	m := NewMockClient()
	ctx := context.Background()

	hp := uint16(5432)
	id, err := m.CreateAndStart(ctx, models.CreateContainerRequest{
		ImageName:     "postgres:16",
		ContainerName: "db",
		EnvironmentVariables: []models.EnvironmentVariable{
			{Key: "POSTGRES_PASSWORD", Value: "secret"},
		},
		PortMappings: []models.PortMapping{
			{ContainerPort: 5432, HostPort: &hp, Protocol: "tcp"},
		},
	})
	if err != nil {
		t.Fatalf("CreateAndStart: %v", err)
	}

	containers, err := m.ListRunningContainers(ctx)
	if err != nil {
		t.Fatalf("ListRunningContainers: %v", err)
	}
	var created *models.ContainerSummary
	for i := range containers {
		if containers[i].ID == id {
			created = &containers[i]
		}
	}
	if created == nil {
		t.Fatalf("created container %s not in running listing", id)
	}
	if created.Name != "db" || created.Image != "postgres:16" {
		t.Fatalf("unexpected summary: %+v", created)
	}
	if len(created.Environment) != 1 || created.Environment[0] != "POSTGRES_PASSWORD=secret" {
		t.Fatalf("unexpected environment: %v", created.Environment)
	}

	if err := m.StopContainer(ctx, id); err != nil {
		t.Fatalf("StopContainer: %v", err)
	}
	containers, _ = m.ListRunningContainers(ctx)
	for _, c := range containers {
		if c.ID == id {
			t.Fatal("stopped container still listed as running")
		}
	}

	if err := m.StartContainer(ctx, "db"); err != nil {
		t.Fatalf("StartContainer by name: %v", err)
	}
	if err := m.RestartContainer(ctx, id); err != nil {
		t.Fatalf("RestartContainer: %v", err)
	}
}

func TestMockClientCreateRequiresImage(t *testing.T) {
	t.Parallel()

	m := NewMockClient()
	if _, err := m.CreateAndStart(context.Background(), models.CreateContainerRequest{}); err == nil {
		t.Fatal("CreateAndStart with empty image should fail")
	}
}

func TestMockClientUnknownContainer(t *testing.T) {
	t.Parallel()

	m := NewMockClient()
	ctx := context.Background()

	if err := m.StopContainer(ctx, "nope"); err == nil {
		t.Fatal("StopContainer on unknown id should fail")
	}
	if _, err := m.ContainerLogs(ctx, "nope", "", false); err == nil {
		t.Fatal("ContainerLogs on unknown id should fail")
	}
}

func TestMockClientLogs(t *testing.T) {
	t.Parallel()

	m := NewMockClient()
	ctx := context.Background()

	containers, err := m.ListRunningContainers(ctx)
	if err != nil || len(containers) == 0 {
		t.Fatalf("no running containers to read logs from: %v", err)
	}
	id := containers[0].ID

	rc, err := m.ContainerLogs(ctx, id, "", false)
	if err != nil {
		t.Fatalf("ContainerLogs: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading logs: %v", err)
	}
	if !strings.Contains(string(data), "mock:") {
		t.Fatalf("unexpected log content: %q", data)
	}
}

func TestMockClientLogsFollow(t *testing.T) {
	t.Parallel()

	m := NewMockClient()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	containers, _ := m.ListRunningContainers(ctx)
	rc, err := m.ContainerLogs(ctx, containers[0].ID, "", true)
	if err != nil {
		t.Fatalf("ContainerLogs follow: %v", err)
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	if !scanner.Scan() {
		t.Fatal("expected at least one line before cancel")
	}
	cancel()
	for scanner.Scan() {
	}
	// Stream must terminate once the context is gone.
}

func TestMockClientMetrics(t *testing.T) {
	t.Parallel()

	m := NewMockClient()
	ctx := context.Background()

	cm, err := m.ContainerMetrics(ctx)
	if err != nil {
		t.Fatalf("ContainerMetrics: %v", err)
	}
	if len(cm) != 1 {
		t.Fatalf("got %d metric rows, want 1 (running containers only)", len(cm))
	}
	if cm[0].ContainerName == "" || cm[0].CPUUsagePercent <= 0 {
		t.Fatalf("implausible metrics row: %+v", cm[0])
	}

	sm, err := m.SystemMetrics(ctx)
	if err != nil {
		t.Fatalf("SystemMetrics: %v", err)
	}
	if sm.TotalContainers != 2 || sm.RunningContainers != 1 || sm.TotalImages != 2 {
		t.Fatalf("unexpected system metrics: %+v", sm)
	}
}
