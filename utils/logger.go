package utils

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

var (
	InfoLogger  *log.Logger
	ErrorLogger *log.Logger
	DebugLogger *log.Logger

	loggerOnce sync.Once
)

// InitLoggers инициализирует файловые логгеры в каталоге logDir.
// Повторные вызовы игнорируются.
func InitLoggers(logDir string) {
	loggerOnce.Do(func() {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			log.Fatal("Failed to create log directory:", err)
		}

		InfoLogger = log.New(openLogFile(logDir, "info.log"), "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
		ErrorLogger = log.New(openLogFile(logDir, "error.log"), "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
		DebugLogger = log.New(openLogFile(logDir, "debug.log"), "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	})
}

func openLogFile(dir, name string) *os.File {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", name, err)
	}
	return f
}

// ensureLoggers подстраховывает вызовы логирования до InitLoggers (тесты)
func ensureLoggers() {
	if InfoLogger == nil {
		loggerOnce.Do(func() {
			InfoLogger = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
			ErrorLogger = log.New(os.Stderr, "ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
			DebugLogger = log.New(os.Stdout, "DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
		})
	}
}

// LogInfo логирует информационное сообщение
func LogInfo(format string, v ...interface{}) {
	ensureLoggers()
	_, file, line, _ := runtime.Caller(1)
	InfoLogger.Printf("%s:%d - %s", filepath.Base(file), line, fmt.Sprintf(format, v...))
}

// LogError логирует сообщение об ошибке
func LogError(format string, v ...interface{}) {
	ensureLoggers()
	_, file, line, _ := runtime.Caller(1)
	ErrorLogger.Printf("%s:%d - %s", filepath.Base(file), line, fmt.Sprintf(format, v...))
}

// LogDebug логирует отладочное сообщение
func LogDebug(format string, v ...interface{}) {
	ensureLoggers()
	_, file, line, _ := runtime.Caller(1)
	DebugLogger.Printf("%s:%d - %s", filepath.Base(file), line, fmt.Sprintf(format, v...))
}

// LogOperation логирует операцию с метриками
func LogOperation(operation string, startTime time.Time, err error) {
	duration := time.Since(startTime)
	if err != nil {
		LogError("Operation %s failed after %v: %v", operation, duration, err)
	} else {
		LogInfo("Operation %s completed in %v", operation, duration)
	}
}
