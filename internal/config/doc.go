// Package config provides configuration parsing for InsightLink.
//
// The configuration is stored in insightlink.json. Every field is optional;
// missing fields take the defaults shown here, and command line flags
// override the file.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "0.0.0.0",
//	    "port": 9999,
//	    "profile": "medium",
//	    "monitor": {"index": 0},
//	    "writeTimeout": "5s",
//	    "pausePoll": "500ms"
//	  },
//	  "viewer": {
//	    "port": 9999,
//	    "dialTimeout": "5s",
//	    "maxFrameSize": 10485760,
//	    "output": "insightlink-view.jpg",
//	    "viewport": {"width": 1280, "height": 720}
//	  },
//	  "admin": {"enabled": false, "address": "127.0.0.1:9998"},
//	  "capture": {"backend": "pattern", "width": 1280, "height": 720},
//	  "watermark": {"x": 15, "y": 15, "minFontPx": 12},
//	  "log": {"level": "info", "format": "text"}
//	}
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	sess := server.New(server.Options{Config: cfg.ServerConfig()})
package config
