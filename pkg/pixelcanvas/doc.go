// Package pixelcanvas provides the public API for embedding the
// pixelcanvas-go editor. It allows third-party applications to run a
// canvas session as a library component with full lifecycle management
// and configuration flexibility.
//
// # Basic Usage
//
// The simplest way to use pixelcanvas is to create an instance from a
// settings file:
//
//	c, err := pixelcanvas.New("/path/to/canvas.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Stop()
//
//	if err := c.Start(); err != nil {
//		log.Fatal(err)
//	}
//
// # Configuration Sources
//
// Pixelcanvas supports four configuration sources:
//
//   - Disk file: Use [New] to load from a filesystem path
//   - Embedded FS: Use [NewFromFS] to load from an [io/fs.FS]
//   - io.Reader: Use [NewFromReader] for dynamic configurations
//   - Programmatic: Use [NewWithDefaults] to run on built-in defaults,
//     environment variables, and [Options] overrides alone
//
// # Lifecycle Management
//
// The [Canvas] interface provides full lifecycle control:
//
//   - [Canvas.Start] loads the canvas from the store and begins the session
//   - [Canvas.Stop] gracefully shuts down the instance
//   - [Canvas.Restart] reloads configuration and restarts
//   - [Canvas.ReloadConfig] applies configuration changes in place
//   - [Canvas.IsRunning] checks if the instance is active
//
// All methods are thread-safe and can be called from any goroutine.
//
// # Error Handling
//
// Runtime errors are reported through [ErrorHandler]:
//
//	c.SetErrorHandler(func(err error) {
//		log.Printf("canvas error: %v", err)
//	})
//
// The handler is called asynchronously; do not block in the handler.
//
// # Headless Mode
//
// For bots and applications that paint programmatically without a
// window:
//
//	c, _ := pixelcanvas.NewWithDefaults(&pixelcanvas.Options{
//		Headless:  true,
//		ServerURL: "http://localhost:8000",
//		UserID:    "my-bot",
//	})
//	c.Start()
//	receipt, err := c.Paint(ctx, 3, 4, "#FF6B6B")
//
// Paint failures classify with errors.Is against [ErrCooldownActive],
// [ErrInvalidColor], and [ErrOutOfBounds].
package pixelcanvas
