// Package config loads, lists and saves scene configurations.
//
// Scene configs live as files in one directory and may be written in JSON,
// YAML or TOML; viper decodes them into engine.SceneConfig. Saved configs are
// always written as indented JSON. Relative image paths inside a config
// resolve against the config directory.
//
// Configuration Format:
//
//	{
//	  "name": "default",
//	  "kind": "layered",
//	  "image": "tile.png",
//	  "cell_width": 100, "cell_height": 100,
//	  "layers": 2, "rows": 2, "columns": 3,
//	  "anchor": {"x": 500, "y": 500},
//	  "background": {"col": 0, "row": 0},
//	  "token": {"col": 1, "row": 0, "wrap_horizontal": true, "wrap_vertical": true,
//	            "color_key": "#ffaec8"}
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sceneConfig, err := manager.LoadConfig("default")
//	configs, err := manager.ListConfigs()
//
// The default config is "default" when present, otherwise the first valid
// config in the directory, otherwise the built-in demo scene from Default.
package config
