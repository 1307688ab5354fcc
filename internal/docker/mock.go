package docker

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/portside-sh/portside/internal/models"
)

// MockClient synthesizes engine state in memory, for development and
// tests without a daemon socket. It honors the same semantics as
// SDKClient: running-only listings, image-ID filtering, create+start,
// verbatim not-found errors.
type MockClient struct {
	mu         sync.Mutex
	containers map[string]*mockContainer
	images     []models.ImageSummary
	nextID     int
}

type mockContainer struct {
	summary models.ContainerSummary
	running bool
	logs    []string
}

// NewMockClient returns a mock pre-seeded with a couple of containers
// and images so the dashboard has something to show.
func NewMockClient() *MockClient {
	m := &MockClient{
		containers: make(map[string]*mockContainer),
		images: []models.ImageSummary{
			{ID: "sha256:1111", RepoTags: []string{"nginx:latest"}},
			{ID: "sha256:2222", RepoTags: []string{"redis:7", "redis:latest"}},
		},
		nextID: 1,
	}

	host := uint16(8080)
	m.seed(&mockContainer{
		running: true,
		summary: models.ContainerSummary{
			Name:   "web",
			Image:  "nginx:latest",
			Status: "running",
			Ports: []models.PortMapping{
				{ContainerPort: 80, HostPort: &host, Protocol: "tcp"},
			},
			Environment: []string{"NGINX_VERSION=1.27"},
		},
		logs: []string{"mock: nginx started", "mock: listening on :80"},
	})
	m.seed(&mockContainer{
		running: false,
		summary: models.ContainerSummary{
			Name:        "batch",
			Image:       "redis:7",
			Status:      "exited",
			Ports:       []models.PortMapping{},
			Environment: []string{},
		},
		logs: []string{"mock: job finished"},
	})
	return m
}

func (m *MockClient) seed(c *mockContainer) {
	id := fmt.Sprintf("mock%08d", m.nextID)
	m.nextID++
	c.summary.ID = id
	m.containers[id] = c
}

func (m *MockClient) find(idOrName string) (*mockContainer, error) {
	if c, ok := m.containers[idOrName]; ok {
		return c, nil
	}
	for _, c := range m.containers {
		if c.summary.Name == idOrName {
			return c, nil
		}
	}
	return nil, fmt.Errorf("no such container: %s", idOrName)
}

func (m *MockClient) ListRunningContainers(_ context.Context) ([]models.ContainerSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ContainerSummary, 0, len(m.containers))
	for _, c := range m.containers {
		if c.running && !isImageID(c.summary.Image) {
			out = append(out, c.summary)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MockClient) ListImages(_ context.Context) ([]models.ImageSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ImageSummary, 0, len(m.images))
	for _, img := range m.images {
		if hasHumanTag(img.RepoTags) {
			out = append(out, img)
		}
	}
	return out, nil
}

func (m *MockClient) ImageInfo(_ context.Context, imageRef string) (*models.ImageInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, img := range m.images {
		for _, tag := range img.RepoTags {
			if tag == imageRef || img.ID == imageRef {
				return &models.ImageInfo{
					ID:           img.ID,
					RepoTags:     img.RepoTags,
					ExposedPorts: []models.PortMapping{{ContainerPort: 80, Protocol: "tcp"}},
					EnvironmentVariables: []models.EnvironmentVariable{
						{Key: "PATH", Value: "/usr/local/sbin:/usr/local/bin:/usr/sbin:/usr/bin"},
					},
				}, nil
			}
		}
	}
	return nil, fmt.Errorf("no such image: %s", imageRef)
}

func (m *MockClient) CreateAndStart(_ context.Context, req models.CreateContainerRequest) (string, error) {
	if strings.TrimSpace(req.ImageName) == "" {
		return "", fmt.Errorf("image name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	name := req.ContainerName
	if name == "" {
		name = generateContainerName(req.ImageName, time.Now())
	}

	env := make([]string, 0, len(req.EnvironmentVariables))
	for _, ev := range req.EnvironmentVariables {
		env = append(env, ev.Key+"="+ev.Value)
	}
	sort.Strings(env)

	ports := make([]models.PortMapping, 0, len(req.PortMappings))
	for _, pm := range req.PortMappings {
		if pm.ContainerPort == 0 {
			continue
		}
		if pm.Protocol == "" {
			pm.Protocol = "tcp"
		}
		if pm.HostPort == nil {
			hp := pm.ContainerPort
			pm.HostPort = &hp
		}
		ports = append(ports, pm)
	}
	sortPorts(ports)

	c := &mockContainer{
		running: true,
		summary: models.ContainerSummary{
			Name:        name,
			Image:       req.ImageName,
			Status:      "running",
			Ports:       ports,
			Environment: env,
		},
		logs: []string{"mock: container started"},
	}
	m.seed(c)
	return c.summary.ID, nil
}

func (m *MockClient) StartContainer(_ context.Context, idOrName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.find(idOrName)
	if err != nil {
		return err
	}
	c.running = true
	c.summary.Status = "running"
	return nil
}

func (m *MockClient) StopContainer(_ context.Context, idOrName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.find(idOrName)
	if err != nil {
		return err
	}
	c.running = false
	c.summary.Status = "exited"
	return nil
}

func (m *MockClient) RestartContainer(_ context.Context, idOrName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.find(idOrName)
	if err != nil {
		return err
	}
	c.running = true
	c.summary.Status = "running"
	return nil
}

func (m *MockClient) ContainerLogs(ctx context.Context, id string, _ string, follow bool) (io.ReadCloser, error) {
	m.mu.Lock()
	c, err := m.find(id)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	lines := strings.Join(c.logs, "\n") + "\n"
	m.mu.Unlock()

	if !follow {
		return io.NopCloser(strings.NewReader(lines)), nil
	}

	// Follow mode: emit the snapshot, then stay open until the caller
	// cancels, like a real log stream would.
	pr, pw := io.Pipe()
	go func() {
		pw.Write([]byte(lines))
		<-ctx.Done()
		pw.CloseWithError(ctx.Err())
	}()
	return pr, nil
}

func (m *MockClient) ContainerMetrics(_ context.Context) ([]models.ContainerMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.ContainerMetrics, 0, len(m.containers))
	for _, c := range m.containers {
		if !c.running {
			continue
		}
		out = append(out, models.ContainerMetrics{
			ContainerID:        c.summary.ID,
			ContainerName:      c.summary.Name,
			Timestamp:          time.Now().UTC(),
			CPUUsagePercent:    12.5,
			MemoryUsageMB:      64,
			MemoryLimitMB:      1024,
			MemoryUsagePercent: 6.25,
			NetworkRxBytes:     1024,
			NetworkTxBytes:     2048,
			BlockReadBytes:     4096,
			BlockWriteBytes:    8192,
			Pids:               3,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContainerName < out[j].ContainerName })
	return out, nil
}

func (m *MockClient) SystemMetrics(_ context.Context) (models.SystemMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	running := 0
	for _, c := range m.containers {
		if c.running {
			running++
		}
	}
	return models.SystemMetrics{
		Timestamp:         time.Now().UTC(),
		TotalContainers:   len(m.containers),
		RunningContainers: running,
		TotalImages:       len(m.images),
		DockerVersion:     "mock",
	}, nil
}

func (m *MockClient) Close() error { return nil }

var _ Client = (*MockClient)(nil)
