// router.go: Manager-directed and peer-to-peer request routing
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"encoding/binary"
	"encoding/json"

	"github.com/google/uuid"
)

// Payload disciplines of the manager-directed request table. dataSize (the
// payload length) is always the byte length of the returned allocation:
//
//	ReqGetAppDirectory   in: -            out: UTF-8 path bytes
//	ReqGetPluginAPI      in: -            out: version string bytes
//	ReqGetPluginsCount   in: -            out: 8 bytes, little-endian uint64
//	ReqGetPluginInfo     in: name or ""   out: JSON snapshot (Go) / np_plugin_info (C bridge)
//	ReqGetPluginVersion  in: name or ""   out: version string bytes
//	ReqCheckPlugin       in: name         out: none; status True/False
//	ReqCheckPluginLoaded in: name         out: none; status True/False

// routeManagerRequest serves the manager path of the router: the closed
// request table above. It is the RouterFunc handed to plugin factories.
func (m *PluginManager) routeManagerRequest(sender string, code RequestCode, data []byte) ([]byte, RequestStatus) {
	m.metrics.requestsRouted.Add(1)
	m.log().Debug("manager request",
		"request_id", uuid.NewString(),
		"sender", sender,
		"code", uint16(code))

	switch code {
	case ReqGetAppDirectory:
		return []byte(m.AppDirectory()), ReqStatusSuccess

	case ReqGetPluginAPI:
		return []byte(PluginAPIVersion), ReqStatusSuccess

	case ReqGetPluginsCount:
		return encodeCount(m.Count()), ReqStatusSuccess

	case ReqGetPluginInfo:
		info, ok := m.Info(targetOrSender(data, sender))
		if !ok {
			return nil, ReqStatusNotFound
		}
		payload, err := json.Marshal(info)
		if err != nil {
			return nil, ReqStatusCommonError
		}
		return payload, ReqStatusSuccess

	case ReqGetPluginVersion:
		info, ok := m.Info(targetOrSender(data, sender))
		if !ok {
			return nil, ReqStatusNotFound
		}
		return []byte(info.Version), ReqStatusSuccess

	case ReqCheckPlugin:
		if len(data) == 0 {
			return nil, ReqStatusCommonError
		}
		if m.Has(string(data)) {
			return nil, ReqStatusTrue
		}
		return nil, ReqStatusFalse

	case ReqCheckPluginLoaded:
		if len(data) == 0 {
			return nil, ReqStatusCommonError
		}
		if m.IsLoaded(string(data)) {
			return nil, ReqStatusTrue
		}
		return nil, ReqStatusFalse
	}

	return nil, ReqStatusUnknownRequest
}

// SendRequest routes a request on behalf of sender. An empty receiver
// addresses the manager; any other receiver must be one of sender's declared
// dependencies, which guarantees the receiver is alive at the moment of the
// send (it was activated strictly before the sender).
//
// Ownership of the returned payload transfers to the caller.
func (m *PluginManager) SendRequest(sender, receiver string, code RequestCode, data []byte) ([]byte, RequestStatus) {
	if receiver == "" {
		return m.routeManagerRequest(sender, code, data)
	}

	senderRec, ok := m.records[sender]
	if !ok {
		return nil, ReqStatusCommonError
	}

	declared := false
	for _, dep := range senderRec.info.Dependencies {
		if dep.Name == receiver {
			declared = true
			break
		}
	}
	if !declared {
		return nil, ReqStatusNotADependency
	}

	target, ok := m.records[receiver]
	if !ok || target.instance == nil {
		return nil, ReqStatusNotFound
	}
	handler, ok := target.instance.(RequestHandler)
	if !ok {
		return nil, ReqStatusCommonError
	}
	m.metrics.requestsRouted.Add(1)
	return handler.HandleRequest(sender, code, data)
}

func targetOrSender(data []byte, sender string) string {
	if len(data) == 0 {
		return sender
	}
	return string(data)
}

// encodeCount renders the registry size in the fixed payload encoding shared
// by the Go router and the C bridge.
func encodeCount(n int) []byte {
	out := make([]byte, 8)
	binary.LittleEndian.PutUint64(out, uint64(n))
	return out
}
