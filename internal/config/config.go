// Package config handles viewer configuration loading and management.
package config

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Assets   AssetsConfig   `yaml:"assets"`
	Camera   CameraConfig   `yaml:"camera"`
	Scene    SceneConfig    `yaml:"scene"`
	Audio    AudioConfig    `yaml:"audio"`
	Debug    DebugConfig    `yaml:"debug"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
	FPSLimit   int  `yaml:"fps_limit"`
}

// AssetsConfig controls the import pipeline.
type AssetsConfig struct {
	// Root is prepended to relative model paths.
	Root string `yaml:"root"`
	// PostProcess lists importer flags by name: triangulate, flip_uvs,
	// gen_smooth_normals, calc_tangent_space, optimize_meshes.
	PostProcess []string `yaml:"post_process"`
	// DecodeWorkers bounds parallel image decoding during texture preload.
	DecodeWorkers int `yaml:"decode_workers"`
}

// CameraConfig holds the free-fly camera settings.
type CameraConfig struct {
	Position    [3]float32 `yaml:"position"`
	FOV         float32    `yaml:"fov"` // degrees
	Near        float32    `yaml:"near"`
	Far         float32    `yaml:"far"`
	Speed       float32    `yaml:"speed"`
	Sensitivity float32    `yaml:"sensitivity"`
	HalfExtents [3]float32 `yaml:"half_extents"`
}

// SceneConfig lists the objects placed at startup.
type SceneConfig struct {
	Objects []ObjectConfig `yaml:"objects"`
}

// ObjectConfig places one model in the scene with its collision box.
type ObjectConfig struct {
	Name        string     `yaml:"name"`
	Model       string     `yaml:"model"`
	Position    [3]float32 `yaml:"position"`
	Rotation    [3]float32 `yaml:"rotation"` // pitch, yaw, roll in degrees
	HalfExtents [3]float32 `yaml:"half_extents"`
}

// AudioConfig controls sound effects.
type AudioConfig struct {
	Enabled bool    `yaml:"enabled"`
	Volume  float64 `yaml:"volume"`
	// CollisionSound is a WAV file played when the camera touches an object.
	CollisionSound string `yaml:"collision_sound"`
}

// DebugConfig toggles debug visualization.
type DebugConfig struct {
	DrawBoxes     bool   `yaml:"draw_boxes"`
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      800,
			Height:     600,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Assets: AssetsConfig{
			Root: "assets",
			PostProcess: []string{
				"triangulate",
				"flip_uvs",
				"gen_smooth_normals",
				"calc_tangent_space",
				"optimize_meshes",
			},
			DecodeWorkers: 4,
		},
		Camera: CameraConfig{
			Position:    [3]float32{0, 0, 10},
			FOV:         45,
			Near:        1,
			Far:         100,
			Speed:       20,
			Sensitivity: 0.05,
			HalfExtents: [3]float32{5, 5, 5},
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  0.8,
		},
		Debug: DebugConfig{
			DrawBoxes:     false,
			ScreenshotDir: "screenshots",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
