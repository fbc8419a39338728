package safe7579

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const moduleInitComponents = `[{"name":"module","type":"address"},{"name":"initData","type":"bytes"}]`

const safeABIJSON = `[
	{"type":"function","name":"enableModule","stateMutability":"nonpayable",
	 "inputs":[{"name":"module","type":"address"}],"outputs":[]},
	{"type":"function","name":"setFallbackHandler","stateMutability":"nonpayable",
	 "inputs":[{"name":"handler","type":"address"}],"outputs":[]}
]`

const adapterABIJSON = `[
	{"type":"function","name":"initializeAccount","stateMutability":"payable",
	 "inputs":[
		{"name":"validators","type":"tuple[]","components":` + moduleInitComponents + `},
		{"name":"executors","type":"tuple[]","components":` + moduleInitComponents + `},
		{"name":"fallbacks","type":"tuple[]","components":` + moduleInitComponents + `},
		{"name":"hooks","type":"tuple[]","components":` + moduleInitComponents + `},
		{"name":"registryInit","type":"tuple","components":[
			{"name":"registry","type":"address"},
			{"name":"attesters","type":"address[]"},
			{"name":"threshold","type":"uint8"}]}
	 ],"outputs":[]}
]`

const initDataComponents = `[
	{"name":"singleton","type":"address"},
	{"name":"owners","type":"address[]"},
	{"name":"threshold","type":"uint256"},
	{"name":"setupTo","type":"address"},
	{"name":"setupData","type":"bytes"},
	{"name":"safe7579","type":"address"},
	{"name":"validators","type":"tuple[]","components":` + moduleInitComponents + `},
	{"name":"callData","type":"bytes"}
]`

const launchpadABIJSON = `[
	{"type":"function","name":"initSafe7579","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"safe7579","type":"address"},
		{"name":"executors","type":"tuple[]","components":` + moduleInitComponents + `},
		{"name":"fallbacks","type":"tuple[]","components":` + moduleInitComponents + `},
		{"name":"hooks","type":"tuple[]","components":` + moduleInitComponents + `},
		{"name":"attesters","type":"address[]"},
		{"name":"threshold","type":"uint8"}
	 ],"outputs":[]},
	{"type":"function","name":"hash","stateMutability":"pure",
	 "inputs":[{"name":"data","type":"tuple","components":` + initDataComponents + `}],
	 "outputs":[{"name":"","type":"bytes32"}]},
	{"type":"function","name":"preValidationSetup","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"initHash","type":"bytes32"},
		{"name":"to","type":"address"},
		{"name":"preInit","type":"bytes"}
	 ],"outputs":[]},
	{"type":"function","name":"setupSafe","stateMutability":"nonpayable",
	 "inputs":[{"name":"initData","type":"tuple","components":` + initDataComponents + `}],
	 "outputs":[]}
]`

const proxyFactoryABIJSON = `[
	{"type":"function","name":"createProxyWithNonce","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"_singleton","type":"address"},
		{"name":"initializer","type":"bytes"},
		{"name":"saltNonce","type":"uint256"}
	 ],"outputs":[{"name":"proxy","type":"address"}]},
	{"type":"function","name":"proxyCreationCode","stateMutability":"pure",
	 "inputs":[],"outputs":[{"name":"","type":"bytes"}]}
]`

var (
	safeABI         = mustParseABI(safeABIJSON)
	adapterABI      = mustParseABI(adapterABIJSON)
	launchpadABI    = mustParseABI(launchpadABIJSON)
	proxyFactoryABI = mustParseABI(proxyFactoryABIJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
