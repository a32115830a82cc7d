package logger

import "sync"

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger dispatches log calls to every configured backend.
type Logger struct {
	mu        sync.RWMutex
	instances []LoggerInstance
}

var singleton = &Logger{}

// Init replaces the configured backends of the global logger.
// Calls made before Init are dropped.
func Init(instances ...LoggerInstance) {
	singleton.mu.Lock()
	defer singleton.mu.Unlock()
	singleton.instances = instances
}

// Attach adds a backend to the global logger and returns a function that
// detaches it again. Tests use it to capture the diagnostic stream.
func Attach(instance LoggerInstance) func() {
	singleton.mu.Lock()
	singleton.instances = append(singleton.instances, instance)
	singleton.mu.Unlock()

	return func() {
		singleton.mu.Lock()
		defer singleton.mu.Unlock()
		for i, in := range singleton.instances {
			if in == instance {
				singleton.instances = append(singleton.instances[:i:i], singleton.instances[i+1:]...)
				return
			}
		}
	}
}

func each(fn func(LoggerInstance)) {
	singleton.mu.RLock()
	instances := singleton.instances
	singleton.mu.RUnlock()

	for _, instance := range instances {
		fn(instance)
	}
}

// Log writes a message at the default log level to all configured backends.
func Log(message string, keyvals ...any) {
	each(func(l LoggerInstance) { l.Log(message, keyvals...) })
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	each(func(l LoggerInstance) { l.Info(message, keyvals...) })
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	each(func(l LoggerInstance) { l.Warn(message, keyvals...) })
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	each(func(l LoggerInstance) { l.Error(message, keyvals...) })
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	each(func(l LoggerInstance) { l.Debug(message, keyvals...) })
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	each(func(l LoggerInstance) { l.Fatal(message, keyvals...) })
}
