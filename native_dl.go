// native_dl.go: C-ABI bridge for native plugin instances and the router trampoline
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

//go:build darwin || freebsd || linux

package nativeplugins

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// nativeVTable mirrors the head of np_instance: four C function pointers,
// each taking the instance pointer as its first argument.
type nativeVTable struct {
	loaded            uintptr
	aboutToBeUnloaded uintptr
	handleRequest     uintptr
	mainExec          uintptr
}

// nativeInstance adapts a np_instance pointer to the Go plugin contract.
type nativeInstance struct {
	self uintptr
	vt   nativeVTable
}

func newNativeInstance(self uintptr) *nativeInstance {
	return &nativeInstance{
		self: self,
		vt:   *(*nativeVTable)(unsafe.Pointer(self)),
	}
}

// Loaded implements Plugin.
func (n *nativeInstance) Loaded() {
	if n.vt.loaded != 0 {
		purego.SyscallN(n.vt.loaded, n.self)
	}
}

// AboutToBeUnloaded implements Plugin.
func (n *nativeInstance) AboutToBeUnloaded() {
	if n.vt.aboutToBeUnloaded != 0 {
		purego.SyscallN(n.vt.aboutToBeUnloaded, n.self)
	}
}

// MainPluginExec implements MainPlugin. Instances whose mainExec slot is
// NULL treat it as a no-op.
func (n *nativeInstance) MainPluginExec() {
	if n.vt.mainExec != 0 {
		purego.SyscallN(n.vt.mainExec, n.self)
	}
}

// HandleRequest implements RequestHandler by forwarding to the instance's
// handleRequest slot. A payload the callee writes into the data slot is
// copied out and the callee's allocation released.
func (n *nativeInstance) HandleRequest(sender string, code RequestCode, data []byte) ([]byte, RequestStatus) {
	if n.vt.handleRequest == 0 {
		return nil, ReqStatusCommonError
	}

	senderC := append([]byte(sender), 0)

	var in []byte
	var dataPtr uintptr
	if len(data) > 0 {
		in = append(append(make([]byte, 0, len(data)+1), data...), 0)
		dataPtr = uintptr(unsafe.Pointer(&in[0]))
	}
	inPtr := dataPtr
	size := uint32(len(data))

	r1, _, _ := purego.SyscallN(n.vt.handleRequest,
		n.self,
		uintptr(unsafe.Pointer(&senderC[0])),
		uintptr(code),
		uintptr(unsafe.Pointer(&dataPtr)),
		uintptr(unsafe.Pointer(&size)))
	runtime.KeepAlive(senderC)
	runtime.KeepAlive(in)

	status := RequestStatus(uint16(r1))
	var out []byte
	if dataPtr != 0 && dataPtr != inPtr && size > 0 {
		out = goBytesAt(dataPtr, size)
		cFree(dataPtr)
	}
	return out, status
}

//
// C memory helpers
//

var (
	allocOnce sync.Once
	mallocFn  uintptr
	freeFn    uintptr
)

// resolveAllocator binds malloc/free from the process image. libc is present
// whenever a plugin has been dlopened, which is the only situation these
// helpers run in.
func resolveAllocator() {
	allocOnce.Do(func() {
		mallocFn, _ = purego.Dlsym(purego.RTLD_DEFAULT, "malloc")
		freeFn, _ = purego.Dlsym(purego.RTLD_DEFAULT, "free")
	})
}

func cAlloc(n int) uintptr {
	resolveAllocator()
	if mallocFn == 0 || n <= 0 {
		return 0
	}
	ptr, _, _ := purego.SyscallN(mallocFn, uintptr(n))
	return ptr
}

func cFree(ptr uintptr) {
	resolveAllocator()
	if freeFn == 0 || ptr == 0 {
		return
	}
	purego.SyscallN(freeFn, ptr)
}

// cBytes copies b into a malloc'd, null-terminated buffer whose ownership
// transfers to the caller.
func cBytes(b []byte) uintptr {
	ptr := cAlloc(len(b) + 1)
	if ptr == 0 {
		return 0
	}
	for i := 0; i < len(b); i++ {
		*(*byte)(unsafe.Pointer(ptr + uintptr(i))) = b[i]
	}
	*(*byte)(unsafe.Pointer(ptr + uintptr(len(b)))) = 0
	return ptr
}

func goStringAt(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var n uintptr
	for *(*byte)(unsafe.Pointer(ptr + n)) != 0 {
		n++
	}
	return string(goBytesAt(ptr, uint32(n)))
}

func goBytesAt(ptr uintptr, n uint32) []byte {
	out := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		out[i] = *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
	}
	return out
}

//
// Router trampoline
//

// newRouterTrampoline materializes the C-ABI entry point handed to native
// plugin factories:
//
//	uint16_t router(const char *sender, uint16_t code, void **data, uint32_t *dataSize);
//
// All manager-directed requests send or receive data, so a null dataSize is
// rejected up front. Inputs are read as C strings; payloads are returned in
// malloc'd buffers whose ownership transfers to the caller, with *dataSize
// set to the payload length (the NUL byte cBytes appends is not counted).
func newRouterTrampoline(m *PluginManager) uintptr {
	return purego.NewCallback(func(senderPtr, code, dataSlot, sizeSlot uintptr) uintptr {
		if sizeSlot == 0 {
			return uintptr(ReqStatusDataSizeNull)
		}
		sender := goStringAt(senderPtr)
		rc := RequestCode(uint16(code))

		var in []byte
		if dataSlot != 0 {
			if p := *(*uintptr)(unsafe.Pointer(dataSlot)); p != 0 {
				in = []byte(goStringAt(p))
			}
		}

		// Native callers receive the ABI-stable C snapshot for info
		// requests instead of the Go-level JSON payload.
		if rc == ReqGetPluginInfo {
			target := string(in)
			if target == "" {
				target = sender
			}
			info, ok := m.Info(target)
			if !ok {
				return uintptr(ReqStatusNotFound)
			}
			ptr, size := infoToC(info)
			if ptr == 0 {
				return uintptr(ReqStatusCommonError)
			}
			*(*uintptr)(unsafe.Pointer(dataSlot)) = ptr
			*(*uint32)(unsafe.Pointer(sizeSlot)) = size
			return uintptr(ReqStatusSuccess)
		}

		payload, status := m.routeManagerRequest(sender, rc, in)
		if status != ReqStatusSuccess {
			return uintptr(status)
		}
		if len(payload) > 0 {
			if dataSlot == 0 {
				return uintptr(ReqStatusCommonError)
			}
			ptr := cBytes(payload)
			if ptr == 0 {
				return uintptr(ReqStatusCommonError)
			}
			*(*uintptr)(unsafe.Pointer(dataSlot)) = ptr
			*(*uint32)(unsafe.Pointer(sizeSlot)) = uint32(len(payload))
		}
		return uintptr(status)
	})
}

// infoToC materializes a metadata snapshot as a single-owner C structure:
//
//	struct np_plugin_info {
//	    const char *name, *prettyName, *version, *author, *url, *license, *copyright;
//	    size_t dependenciesNb;
//	    struct { const char *name, *version; } *dependencies;
//	};
//
// Every string and the dependency array are separate malloc'd allocations;
// ownership of the whole tree transfers to the caller. The returned size is
// the byte length of the top-level struct.
func infoToC(info PluginInfo) (uintptr, uint32) {
	const words = 9
	word := unsafe.Sizeof(uintptr(0))
	base := cAlloc(int(words * word))
	if base == 0 {
		return 0, 0
	}

	put := func(idx int, val uintptr) {
		*(*uintptr)(unsafe.Pointer(base + uintptr(idx)*word)) = val
	}
	put(0, cBytes([]byte(info.Name)))
	put(1, cBytes([]byte(info.PrettyName)))
	put(2, cBytes([]byte(info.Version)))
	put(3, cBytes([]byte(info.Author)))
	put(4, cBytes([]byte(info.URL)))
	put(5, cBytes([]byte(info.License)))
	put(6, cBytes([]byte(info.Copyright)))
	put(7, uintptr(len(info.Dependencies)))

	var depArray uintptr
	if len(info.Dependencies) > 0 {
		depArray = cAlloc(len(info.Dependencies) * 2 * int(word))
		if depArray == 0 {
			put(8, 0)
			return base, uint32(words * word)
		}
		for i, dep := range info.Dependencies {
			*(*uintptr)(unsafe.Pointer(depArray + uintptr(2*i)*word)) = cBytes([]byte(dep.Name))
			*(*uintptr)(unsafe.Pointer(depArray + uintptr(2*i+1)*word)) = cBytes([]byte(dep.Version))
		}
	}
	put(8, depArray)

	return base, uint32(words * word)
}
