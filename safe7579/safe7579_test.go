package safe7579

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethaccount/recovery/erc7579"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	adapter   = common.HexToAddress("0x7579EE8307284F293B1927136486880611F20002")
	launchpad = common.HexToAddress("0x7579011aB74c46090561ea277Ba79D510c6C00ff")
	factory   = common.HexToAddress("0x4e1DCf7AD4e460CfD30791CCC4F9c8a4f820ec67")
	guardian  = common.HexToAddress("0x39A67aFa3b68589a65F43c24FEaDD24df4Bb74e7")
	validator = common.HexToAddress("0x2483DA3A338895199E5e538530213157e931Bf06")
)

func TestSelectors(t *testing.T) {
	enable, err := EnableModule(adapter)
	require.NoError(t, err)
	fallback, err := SetFallbackHandler(adapter)
	require.NoError(t, err)
	initAccount, err := InitializeAccount(nil, []erc7579.ModuleInit{{Module: guardian}}, nil, nil, RegistryConfig{})
	require.NoError(t, err)
	initSafe, err := InitSafe7579(adapter, nil, nil, nil, RegistryConfig{})
	require.NoError(t, err)
	preValidation, err := PreValidationSetup(common.Hash{}, common.Address{}, nil)
	require.NoError(t, err)
	setup, err := SetupSafe(InitData{})
	require.NoError(t, err)
	hash, err := LaunchpadHash(InitData{})
	require.NoError(t, err)
	create, err := CreateProxyWithNonce(launchpad, []byte{0x01}, big.NewInt(0))
	require.NoError(t, err)
	creationCode, err := ProxyCreationCode()
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     []byte
		selector string
	}{
		{"enableModule", enable, "0x610b5925"},
		{"setFallbackHandler", fallback, "0xf08a0323"},
		{"initializeAccount", initAccount, "0x540fb4f9"},
		{"initSafe7579", initSafe, "0x15cca638"},
		{"preValidationSetup", preValidation, "0x4fff40e1"},
		{"setupSafe", setup, "0xd9ed0e8f"},
		{"hash", hash, "0x928107f9"},
		{"createProxyWithNonce", create, "0x1688f0b9"},
		{"proxyCreationCode", creationCode, "0x53e5d935"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.GreaterOrEqual(t, len(tt.data), 4)
			assert.Equal(t, tt.selector, hexutil.Encode(tt.data[:4]))
		})
	}

	assert.Equal(t, adapter, common.BytesToAddress(enable[4:36]))
}

func TestLaunchpadHash_Roundtrip(t *testing.T) {
	output := common.LeftPadBytes([]byte{0xab, 0xcd}, 32)
	hash, err := UnpackLaunchpadHash(output)
	require.NoError(t, err)
	assert.Equal(t, common.BytesToHash([]byte{0xab, 0xcd}), hash)

	_, err = UnpackLaunchpadHash(nil)
	assert.Error(t, err)
}

func TestSetupSafe_CommitsToInitData(t *testing.T) {
	data := InitData{
		Singleton:  common.HexToAddress("0xC7a5a28849D7309d7E97Ae398C798A9C82db4138"),
		Owners:     []common.Address{validator},
		Threshold:  big.NewInt(1),
		SetupTo:    launchpad,
		Safe7579:   adapter,
		Validators: []erc7579.ModuleInit{{Module: validator, InitData: []byte{0x01}}},
	}
	first, err := SetupSafe(data)
	require.NoError(t, err)

	data.Owners = []common.Address{guardian}
	second, err := SetupSafe(data)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestProxyAddress(t *testing.T) {
	creationCode := hexutil.MustDecode("0x608060405234801561001057600080fd5b50")
	initializer := hexutil.MustDecode("0x4fff40e1deadbeef")

	addr := ProxyAddress(factory, launchpad, creationCode, initializer, big.NewInt(42))
	assert.Equal(t, common.HexToAddress("0xdf3c27d8b15cb9f637fa689f1e4b471f6f1a355b"), addr)

	other := ProxyAddress(factory, launchpad, creationCode, initializer, big.NewInt(43))
	assert.NotEqual(t, addr, other)

	// the creation code slice must not be modified
	assert.Equal(t, hexutil.MustDecode("0x608060405234801561001057600080fd5b50"), creationCode)
}

func TestUnpackProxyCreationCode(t *testing.T) {
	code := []byte{0x60, 0x80, 0x60, 0x40}
	output := append(common.LeftPadBytes([]byte{0x20}, 32), common.LeftPadBytes([]byte{0x04}, 32)...)
	output = append(output, common.RightPadBytes(code, 32)...)

	decoded, err := UnpackProxyCreationCode(output)
	require.NoError(t, err)
	assert.Equal(t, code, decoded)
}

func TestSafeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  SafeConfig
		wantErr bool
	}{
		{"single owner", SafeConfig{Owners: []common.Address{validator}, Threshold: 1}, false},
		{"no owners", SafeConfig{Threshold: 1}, true},
		{"zero threshold", SafeConfig{Owners: []common.Address{validator}}, true},
		{"threshold above owners", SafeConfig{Owners: []common.Address{validator}, Threshold: 2}, true},
		{"duplicate owner", SafeConfig{Owners: []common.Address{validator, validator}, Threshold: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSafeConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecoveryConfig_InstallData(t *testing.T) {
	config := NewRecoveryConfig([]common.Address{guardian})
	assert.Equal(t, time.Second, config.Delay)
	assert.Equal(t, 14*24*time.Hour, config.Expiry)

	data, err := config.InstallData()
	require.NoError(t, err)

	expected := hexutil.MustDecode("0x" +
		"00000000000000000000000000000000000000000000000000000000000000a0" +
		"00000000000000000000000000000000000000000000000000000000000000e0" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"0000000000000000000000000000000000000000000000000000000000127500" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"00000000000000000000000039a67afa3b68589a65f43c24feadd24df4bb74e7" +
		"0000000000000000000000000000000000000000000000000000000000000001" +
		"0000000000000000000000000000000000000000000000000000000000000001")
	assert.Equal(t, expected, data)
}

func TestRecoveryConfig_Validate(t *testing.T) {
	second := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	valid := func() RecoveryConfig {
		return NewRecoveryConfig([]common.Address{guardian, second})
	}

	tests := []struct {
		name   string
		mutate func(c *RecoveryConfig)
		ok     bool
	}{
		{"defaults", func(c *RecoveryConfig) {}, true},
		{"threshold equals total weight", func(c *RecoveryConfig) { c.Threshold = big.NewInt(2) }, true},
		{"no guardians", func(c *RecoveryConfig) { c.Guardians, c.Weights = nil, nil }, false},
		{"weights mismatch", func(c *RecoveryConfig) { c.Weights = c.Weights[:1] }, false},
		{"zero weight", func(c *RecoveryConfig) { c.Weights[0] = big.NewInt(0) }, false},
		{"unreachable threshold", func(c *RecoveryConfig) { c.Threshold = big.NewInt(3) }, false},
		{"duplicate guardian", func(c *RecoveryConfig) { c.Guardians[1] = guardian }, false},
		{"expiry before delay", func(c *RecoveryConfig) { c.Delay = 3 * 7 * 24 * time.Hour }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidRecoveryConfig)
			}
		})
	}
}
