package docker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	"golang.org/x/sync/semaphore"

	"github.com/portside-sh/portside/internal/metrics"
	"github.com/portside-sh/portside/internal/models"
)

const (
	// defaultLogTail bounds non-streaming log requests that don't ask
	// for a specific depth.
	defaultLogTail = "100"

	// maxConcurrentStats caps parallel stats calls during a metrics
	// snapshot. Each call blocks 1-2s on the daemon waiting for a CPU
	// delta sample, so they must run in parallel — but not unbounded.
	maxConcurrentStats = 8

	// onFailureMaxRetries is the retry cap applied to the on-failure
	// restart policy.
	onFailureMaxRetries = 5
)

// SDKClient implements Client using the Docker Engine SDK.
type SDKClient struct {
	cli *client.Client
}

// NewSDKClient connects to the daemon at the given socket path, or via
// the platform default (DOCKER_HOST / /var/run/docker.sock) when the
// path is empty.
func NewSDKClient(socketPath string) (*SDKClient, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if socketPath != "" {
		opts = append(opts, client.WithHost("unix://"+socketPath))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("docker sdk: %w", err)
	}
	return &SDKClient{cli: cli}, nil
}

func (s *SDKClient) ListRunningContainers(ctx context.Context) ([]models.ContainerSummary, error) {
	raw, err := s.cli.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("status", "running")),
	})
	if err != nil {
		return nil, fmt.Errorf("container list: %w", err)
	}

	result := make([]models.ContainerSummary, 0, len(raw))
	for _, c := range raw {
		// A raw image ID means the tag was removed; there is nothing
		// actionable to show the operator for it.
		if isImageID(c.Image) {
			continue
		}

		summary := models.ContainerSummary{
			ID:          c.ID,
			Name:        containerName(c.Names),
			Image:       c.Image,
			Status:      c.State,
			Ports:       []models.PortMapping{},
			Environment: []string{},
		}

		// One bad container must not hide all the others.
		insp, err := s.cli.ContainerInspect(ctx, c.ID)
		if err != nil {
			slog.Warn("container inspect", "container", c.ID, "err", err)
			result = append(result, summary)
			continue
		}

		if insp.NetworkSettings != nil {
			summary.Ports = portMappings(insp.NetworkSettings.Ports)
		}
		if insp.Config != nil {
			summary.Environment = sortedCopy(insp.Config.Env)
		}

		result = append(result, summary)
	}
	return result, nil
}

func (s *SDKClient) ListImages(ctx context.Context) ([]models.ImageSummary, error) {
	imgs, err := s.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("image list: %w", err)
	}

	result := make([]models.ImageSummary, 0, len(imgs))
	for _, img := range imgs {
		if !hasHumanTag(img.RepoTags) {
			continue
		}
		result = append(result, models.ImageSummary{
			ID:       img.ID,
			RepoTags: img.RepoTags,
		})
	}
	return result, nil
}

func (s *SDKClient) ImageInfo(ctx context.Context, imageRef string) (*models.ImageInfo, error) {
	insp, _, err := s.cli.ImageInspectWithRaw(ctx, imageRef)
	if err != nil {
		return nil, fmt.Errorf("image inspect: %w", err)
	}

	info := &models.ImageInfo{
		ID:                   insp.ID,
		RepoTags:             insp.RepoTags,
		ExposedPorts:         []models.PortMapping{},
		EnvironmentVariables: []models.EnvironmentVariable{},
	}

	if insp.Config != nil {
		for spec := range insp.Config.ExposedPorts {
			if port, proto, ok := parsePortSpec(string(spec)); ok {
				info.ExposedPorts = append(info.ExposedPorts, models.PortMapping{
					ContainerPort: port,
					Protocol:      proto,
				})
			}
		}
		for _, entry := range insp.Config.Env {
			key, value, _ := strings.Cut(entry, "=")
			info.EnvironmentVariables = append(info.EnvironmentVariables, models.EnvironmentVariable{
				Key:   key,
				Value: value,
			})
		}
	}

	sortPorts(info.ExposedPorts)
	sort.Slice(info.EnvironmentVariables, func(i, j int) bool {
		return info.EnvironmentVariables[i].Key < info.EnvironmentVariables[j].Key
	})
	return info, nil
}

func (s *SDKClient) CreateAndStart(ctx context.Context, req models.CreateContainerRequest) (string, error) {
	if strings.TrimSpace(req.ImageName) == "" {
		return "", errors.New("image name is required")
	}

	name := req.ContainerName
	if name == "" {
		name = generateContainerName(req.ImageName, time.Now())
	}

	env := make([]string, 0, len(req.EnvironmentVariables))
	for _, ev := range req.EnvironmentVariables {
		if ev.Key == "" {
			return "", errors.New("environment variable with empty key")
		}
		env = append(env, ev.Key+"="+ev.Value)
	}

	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, pm := range req.PortMappings {
		if pm.ContainerPort == 0 {
			// Zero-value sentinel: the form field was left blank.
			continue
		}
		proto := pm.Protocol
		if proto == "" {
			proto = "tcp"
		}
		port, err := nat.NewPort(proto, strconv.Itoa(int(pm.ContainerPort)))
		if err != nil {
			return "", fmt.Errorf("invalid port mapping: %w", err)
		}

		hostPort := pm.ContainerPort
		if pm.HostPort != nil && *pm.HostPort != 0 {
			hostPort = *pm.HostPort
		}

		exposed[port] = struct{}{}
		bindings[port] = append(bindings[port], nat.PortBinding{
			HostPort: strconv.Itoa(int(hostPort)),
		})
	}

	cfg := &container.Config{
		Image:        req.ImageName,
		Env:          env,
		ExposedPorts: exposed,
		AttachStdout: true,
		AttachStderr: true,
	}
	hostCfg := &container.HostConfig{
		PortBindings:  bindings,
		RestartPolicy: restartPolicy(req.RestartPolicy),
	}

	resp, err := s.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}

	if err := s.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		// The container exists but never ran; the caller needs its ID
		// to find and clean it up.
		return resp.ID, fmt.Errorf("start created container %s: %w", resp.ID, err)
	}

	slog.Info("container created", "name", name, "image", req.ImageName, "id", resp.ID)
	return resp.ID, nil
}

func (s *SDKClient) StartContainer(ctx context.Context, idOrName string) error {
	return s.cli.ContainerStart(ctx, idOrName, container.StartOptions{})
}

func (s *SDKClient) StopContainer(ctx context.Context, idOrName string) error {
	return s.cli.ContainerStop(ctx, idOrName, container.StopOptions{})
}

func (s *SDKClient) RestartContainer(ctx context.Context, idOrName string) error {
	return s.cli.ContainerRestart(ctx, idOrName, container.StopOptions{})
}

func (s *SDKClient) ContainerLogs(ctx context.Context, id string, tail string, follow bool) (io.ReadCloser, error) {
	insp, err := s.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("inspect for logs: %w", err)
	}
	isTTY := insp.Config != nil && insp.Config.Tty

	if tail == "" {
		tail = defaultLogTail
	}

	stream, err := s.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     follow,
		Tail:       tail,
	})
	if err != nil {
		return nil, fmt.Errorf("container logs: %w", err)
	}

	if isTTY {
		// TTY containers produce a raw stream, no multiplexing.
		return stream, nil
	}

	// Non-TTY log streams interleave stdout/stderr with 8-byte frame
	// headers; demux through stdcopy into a pipe.
	pr, pw := io.Pipe()
	go func() {
		_, err := stdcopy.StdCopy(pw, pw, stream)
		stream.Close()
		pw.CloseWithError(err)
	}()
	return pr, nil
}

func (s *SDKClient) ContainerMetrics(ctx context.Context) ([]models.ContainerMetrics, error) {
	containers, err := s.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("container list for stats: %w", err)
	}

	sem := semaphore.NewWeighted(maxConcurrentStats)
	var (
		mu  sync.Mutex
		out []models.ContainerMetrics
		wg  sync.WaitGroup
	)

	for _, c := range containers {
		wg.Add(1)
		go func(c container.Summary) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			m, err := s.sampleContainer(ctx, c.ID, containerName(c.Names))
			if err != nil {
				// Skip, never fail the whole snapshot.
				slog.Warn("container stats", "container", c.ID, "err", err)
				return
			}

			mu.Lock()
			out = append(out, m)
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ContainerName < out[j].ContainerName
	})
	return out, nil
}

func (s *SDKClient) sampleContainer(ctx context.Context, id, name string) (models.ContainerMetrics, error) {
	resp, err := s.cli.ContainerStats(ctx, id, false)
	if err != nil {
		return models.ContainerMetrics{}, fmt.Errorf("stats: %w", err)
	}
	defer resp.Body.Close()

	var stats container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return models.ContainerMetrics{}, fmt.Errorf("decode stats: %w", err)
	}

	return metrics.Compute(id, name, stats, time.Now()), nil
}

func (s *SDKClient) SystemMetrics(ctx context.Context) (models.SystemMetrics, error) {
	all, err := s.cli.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return models.SystemMetrics{}, fmt.Errorf("container list: %w", err)
	}
	running := 0
	for _, c := range all {
		if c.State == "running" {
			running++
		}
	}

	imgs, err := s.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return models.SystemMetrics{}, fmt.Errorf("image list: %w", err)
	}

	version, err := s.cli.ServerVersion(ctx)
	if err != nil {
		return models.SystemMetrics{}, fmt.Errorf("server version: %w", err)
	}

	return models.SystemMetrics{
		Timestamp:         time.Now().UTC(),
		TotalContainers:   len(all),
		RunningContainers: running,
		TotalImages:       len(imgs),
		DockerVersion:     version.Version,
	}, nil
}

func (s *SDKClient) Close() error {
	return s.cli.Close()
}

// sortedCopy returns a lexically sorted copy of the given slice.
func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

// containerName returns the first engine-reported name without the
// leading slash.
func containerName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return strings.TrimPrefix(names[0], "/")
}

// isImageID reports whether an image reference is a raw content hash
// rather than a human tag: a 64-char hex string, a sha256: reference, or
// the engine's <none> placeholder.
func isImageID(imageRef string) bool {
	if strings.HasPrefix(imageRef, "sha256:") || strings.Contains(imageRef, "<none>") {
		return true
	}
	if len(imageRef) != 64 {
		return false
	}
	for _, r := range imageRef {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F') {
			return false
		}
	}
	return true
}

// hasHumanTag reports whether at least one tag is a real human tag and
// not the engine's <none>:<none> placeholder.
func hasHumanTag(tags []string) bool {
	for _, t := range tags {
		if !strings.Contains(t, "<none>") {
			return true
		}
	}
	return false
}

// portMappings flattens the engine's port map into sorted wire mappings.
// A port with no host binding appears once, unpublished.
func portMappings(ports nat.PortMap) []models.PortMapping {
	result := make([]models.PortMapping, 0, len(ports))
	for port, bindings := range ports {
		cp := uint16(port.Int())
		proto := port.Proto()

		if len(bindings) == 0 {
			result = append(result, models.PortMapping{ContainerPort: cp, Protocol: proto})
			continue
		}
		for _, b := range bindings {
			pm := models.PortMapping{ContainerPort: cp, Protocol: proto}
			if hp, err := strconv.ParseUint(b.HostPort, 10, 16); err == nil && hp != 0 {
				hostPort := uint16(hp)
				pm.HostPort = &hostPort
			}
			result = append(result, pm)
		}
	}
	sortPorts(result)
	return result
}

// sortPorts orders mappings by container port, then protocol, then host
// port, so listings are stable across requests.
func sortPorts(ports []models.PortMapping) {
	sort.Slice(ports, func(i, j int) bool {
		if ports[i].ContainerPort != ports[j].ContainerPort {
			return ports[i].ContainerPort < ports[j].ContainerPort
		}
		if ports[i].Protocol != ports[j].Protocol {
			return ports[i].Protocol < ports[j].Protocol
		}
		return hostPortOrZero(ports[i]) < hostPortOrZero(ports[j])
	})
}

func hostPortOrZero(pm models.PortMapping) uint16 {
	if pm.HostPort == nil {
		return 0
	}
	return *pm.HostPort
}

// parsePortSpec splits an image config port key like "80/tcp".
func parsePortSpec(spec string) (uint16, string, bool) {
	portStr, proto, found := strings.Cut(spec, "/")
	if !found || proto == "" {
		proto = "tcp"
	}
	n, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || n == 0 {
		return 0, "", false
	}
	return uint16(n), proto, true
}

// generateContainerName derives a container name from the image's
// repository segment plus a time-based numeric suffix, so quick repeated
// creates from the same image don't collide.
func generateContainerName(imageRef string, now time.Time) string {
	repo := imageRef
	if idx := strings.Index(repo, ":"); idx >= 0 {
		repo = repo[:idx]
	}
	repo = strings.ReplaceAll(repo, "/", "-")
	if repo == "" {
		repo = "container"
	}
	return fmt.Sprintf("%s-%d", repo, now.Unix()%10000)
}

// restartPolicy maps the request enum onto the engine's policy type.
// Unrecognized or empty values deliberately fall back to "no restart",
// matching what the create form sends for the default choice.
func restartPolicy(policy string) container.RestartPolicy {
	switch policy {
	case "always":
		return container.RestartPolicy{Name: container.RestartPolicyAlways}
	case "unless-stopped":
		return container.RestartPolicy{Name: container.RestartPolicyUnlessStopped}
	case "on-failure":
		return container.RestartPolicy{
			Name:              container.RestartPolicyOnFailure,
			MaximumRetryCount: onFailureMaxRetries,
		}
	default:
		return container.RestartPolicy{Name: container.RestartPolicyDisabled}
	}
}

// Ensure SDKClient implements Client at compile time.
var _ Client = (*SDKClient)(nil)
