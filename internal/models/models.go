// Package models defines the wire types exchanged between the engine
// adapter and the HTTP layer. All types serialize to snake_case JSON.
package models

import "time"

// PortMapping describes one port binding on a container or image.
// HostPort is nil when the port is exposed but not published.
type PortMapping struct {
	ContainerPort uint16  `json:"container_port"`
	HostPort      *uint16 `json:"host_port,omitempty"`
	Protocol      string  `json:"protocol"`
}

// ContainerSummary is a point-in-time snapshot of one running container.
// Ports are sorted by container port then protocol; Environment is sorted
// lexically. Neither is cached beyond the request that produced it.
type ContainerSummary struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Image       string        `json:"image"`
	Status      string        `json:"status"`
	Ports       []PortMapping `json:"ports"`
	Environment []string      `json:"environment"`
}

// ImageSummary is a locally cached image with at least one human tag.
type ImageSummary struct {
	ID       string   `json:"id"`
	RepoTags []string `json:"repo_tags"`
}

// EnvironmentVariable is one KEY=VALUE pair, split on the first '='.
type EnvironmentVariable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ImageInfo holds the declared ports and baked-in env defaults of an image.
type ImageInfo struct {
	ID                   string                `json:"id"`
	RepoTags             []string              `json:"repo_tags"`
	ExposedPorts         []PortMapping         `json:"exposed_ports"`
	EnvironmentVariables []EnvironmentVariable `json:"environment_variables"`
}

// CreateContainerRequest describes a container to create and start.
// ContainerName is optional; a name is derived from the image when empty.
// RestartPolicy is one of "no", "always", "unless-stopped", "on-failure";
// anything else falls back to "no".
type CreateContainerRequest struct {
	ImageName            string                `json:"image_name"`
	ContainerName        string                `json:"container_name,omitempty"`
	EnvironmentVariables []EnvironmentVariable `json:"environment_variables"`
	PortMappings         []PortMapping         `json:"port_mappings"`
	RestartPolicy        string                `json:"restart_policy,omitempty"`
}

// ContainerMetrics is a derived resource-usage sample for one container,
// computed from two consecutive engine stats snapshots.
type ContainerMetrics struct {
	ContainerID        string    `json:"container_id"`
	ContainerName      string    `json:"container_name"`
	Timestamp          time.Time `json:"timestamp"`
	CPUUsagePercent    float64   `json:"cpu_usage_percent"`
	MemoryUsageMB      float64   `json:"memory_usage_mb"`
	MemoryLimitMB      float64   `json:"memory_limit_mb"`
	MemoryUsagePercent float64   `json:"memory_usage_percent"`
	NetworkRxBytes     uint64    `json:"network_rx_bytes"`
	NetworkTxBytes     uint64    `json:"network_tx_bytes"`
	BlockReadBytes     uint64    `json:"block_read_bytes"`
	BlockWriteBytes    uint64    `json:"block_write_bytes"`
	Pids               uint64    `json:"pids"`
}

// SystemMetrics summarizes the engine host.
type SystemMetrics struct {
	Timestamp         time.Time `json:"timestamp"`
	TotalContainers   int       `json:"total_containers"`
	RunningContainers int       `json:"running_containers"`
	TotalImages       int       `json:"total_images"`
	DockerVersion     string    `json:"docker_version"`
}

// MetricsResponse is the full payload returned by the metrics endpoint.
type MetricsResponse struct {
	System     SystemMetrics      `json:"system"`
	Containers []ContainerMetrics `json:"containers"`
}
