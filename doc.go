// doc.go: Package overview and native plugin ABI documentation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Package nativeplugins discovers, loads, orders, activates and unloads
// native plugins delivered as dynamic shared objects (.so, .dylib, .dll).
//
// A host application creates a PluginManager (or uses the process-wide
// Default() instance), points it at one or more directories, and lets it
// bring every discovered plugin into a running state in an order that
// respects inter-plugin dependencies:
//
//	mgr := nativeplugins.NewPluginManager()
//	mgr.Search("/usr/lib/myapp/plugins", true, nil)
//	mgr.Load(true, func(code nativeplugins.Outcome, detail string) {
//	    log.Printf("%s: %s", code, detail)
//	})
//	defer mgr.Unload(nil)
//
// # Native plugin ABI
//
// Every plugin shared object must export three symbols with C linkage:
//
//	const char *np_name;         // unique ASCII identifier
//	const char *np_metadata;     // UTF-8 JSON document (schema below)
//	const void *np_createPlugin; // pointer to the factory function
//
// The factory has the signature
//
//	np_instance *createPlugin(np_router router, np_instance **deps, uint32_t depCount);
//
// where np_instance begins with four function pointers, invoked by the
// manager through the same instance pointer:
//
//	typedef struct np_instance {
//	    void     (*loaded)(struct np_instance *self);
//	    void     (*aboutToBeUnloaded)(struct np_instance *self);
//	    uint16_t (*handleRequest)(struct np_instance *self, const char *sender,
//	                              uint16_t code, void **data, uint32_t *dataSize);
//	    void     (*mainExec)(struct np_instance *self); // may be NULL
//	} np_instance;
//
// The deps array holds the instance pointers of the plugin's declared
// dependencies, in declaration order. They stay valid until the plugin's own
// aboutToBeUnloaded returns.
//
// The router handed to the factory is the single entry point back into the
// manager:
//
//	typedef uint16_t (*np_router)(const char *sender, uint16_t code,
//	                              void **data, uint32_t *dataSize);
//
// Payload bytes written into *data are heap allocated and ownership
// transfers to the caller; *dataSize carries the payload length. Byte-string
// payloads are followed by a NUL byte that is not counted in *dataSize.
//
// # Metadata schema
//
//	{
//	  "api":         "1.0.0",
//	  "name":        "identifier",
//	  "prettyName":  "Readable Name",
//	  "version":     "1.2.3",
//	  "author":      "...",
//	  "url":         "...",
//	  "license":     "...",
//	  "copyright":   "...",
//	  "dependencies": [ {"name": "other", "version": "1.0.0"} ]
//	}
//
// All fields are required (dependencies may be an empty array). A document
// that is not well formed, misses a field, or declares an "api" version not
// compatible with PluginAPIVersion is rejected during Search.
//
// Version compatibility follows the same-major rule: a provided version
// satisfies a requested one iff both share the major component and the
// provided minor.patch is greater than or equal to the requested one.
//
// Go code hosted in-process (and tests) can implement plugins directly with
// the Plugin, RequestHandler and MainPlugin interfaces instead of the C ABI;
// the manager treats both kinds uniformly.
package nativeplugins
