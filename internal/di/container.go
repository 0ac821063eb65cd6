// internal/di/container.go
package di

import (
	"sort"
	"sync"
)

// Names under which the app registers its services.
const (
	ServiceStore       = "store"
	ServiceMetrics     = "metrics"
	ServiceProgress    = "progress"
	ServiceHistory     = "history"
	ServiceProfile     = "profile"
	ServiceScripts     = "scripts"
	ServiceExport      = "export"
	ServiceGeneration  = "generation"
	ServiceTranscriber = "transcriber"
	ServiceGenerator   = "generator"
)

// Container is a name-keyed service registry.
type Container struct {
	services map[string]interface{}
	mutex    sync.RWMutex
}

var (
	globalContainer *Container
	once            sync.Once
)

func NewContainer() *Container {
	return &Container{services: make(map[string]interface{})}
}

// GetContainer returns the process-wide container.
func GetContainer() *Container {
	once.Do(func() {
		globalContainer = NewContainer()
	})
	return globalContainer
}

// Register stores service under name, replacing any previous entry.
func (c *Container) Register(name string, service interface{}) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.services[name] = service
}

// Get returns the service registered under name, or nil.
func (c *Container) Get(name string) interface{} {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.services[name]
}

func (c *Container) Has(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, exists := c.services[name]
	return exists
}

func (c *Container) Remove(name string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.services, name)
}

// Clear drops every registration.
func (c *Container) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.services = make(map[string]interface{})
}

// GetNames returns the registered names in sorted order.
func (c *Container) GetNames() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
