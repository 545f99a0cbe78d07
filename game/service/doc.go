// Package service provides the business logic layer between network hosts
// and scene engines.
//
// The service package implements:
//   - Multi-session scene management
//   - Configuration lookup and saving
//   - Remote input: event batches, token moves, pan and zoom
//   - Frame rendering to PNG, cell inspection and hit testing
//
// Core Interfaces:
//
// SceneService is the main service interface used by the HTTP API, the
// websocket hub and the MCP proxy. SessionManager stores sessions and
// ConfigManager loads scene configurations; session.Manager and
// config.Manager implement them.
//
// Usage:
//
//	sessionMgr := session.NewManager(configMgr.Dir())
//	sceneService := service.NewSceneService(sessionMgr, configMgr)
//
//	info, err := sceneService.CreateSession(ctx, "default")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := sceneService.Move(ctx, info.ID, "right")
//
// Errors:
//
// Lookups of unknown sessions or configs wrap ErrNotFound; malformed requests
// wrap ErrInvalidInput. Hosts map them to status codes with errors.Is.
package service
