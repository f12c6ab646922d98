package abi

// VestingVaultABI covers the vault entrypoints, views and events the client uses.
const VestingVaultABI = `[
  {"type":"function","name":"deposit","stateMutability":"nonpayable",
   "inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable",
   "inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"claim","stateMutability":"nonpayable",
   "inputs":[
     {"name":"payload","type":"tuple","components":[
       {"name":"auth","type":"bytes"},
       {"name":"kernelResponses","type":"bytes"},
       {"name":"kernelParams","type":"bytes"}]},
     {"name":"token","type":"address"},
     {"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"createVestingSchedule","stateMutability":"nonpayable",
   "inputs":[
     {"name":"token","type":"address"},
     {"name":"totalAmount","type":"uint256"},
     {"name":"startTime","type":"uint256"},
     {"name":"cliffDuration","type":"uint256"},
     {"name":"vestingDuration","type":"uint256"},
     {"name":"eligibleAddresses","type":"address[]"}],"outputs":[]},
  {"type":"function","name":"getVestingSchedule","stateMutability":"view",
   "inputs":[{"name":"token","type":"address"}],
   "outputs":[
     {"name":"token","type":"address"},
     {"name":"totalAmount","type":"uint256"},
     {"name":"startTime","type":"uint256"},
     {"name":"cliffDuration","type":"uint256"},
     {"name":"vestingDuration","type":"uint256"},
     {"name":"creator","type":"address"},
     {"name":"active","type":"bool"}]},
  {"type":"function","name":"getVestedAmount","stateMutability":"view",
   "inputs":[{"name":"token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"isEligible","stateMutability":"view",
   "inputs":[{"name":"token","type":"address"},{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"deposits","stateMutability":"view",
   "inputs":[{"name":"user","type":"address"},{"name":"token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"claims","stateMutability":"view",
   "inputs":[{"name":"user","type":"address"},{"name":"token","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"Deposited","anonymous":false,
   "inputs":[{"name":"user","type":"address","indexed":true},{"name":"token","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"Claimed","anonymous":false,
   "inputs":[{"name":"user","type":"address","indexed":true},{"name":"token","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"Withdrawn","anonymous":false,
   "inputs":[{"name":"user","type":"address","indexed":true},{"name":"token","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"VestingScheduleCreated","anonymous":false,
   "inputs":[{"name":"token","type":"address","indexed":true},{"name":"creator","type":"address","indexed":true},{"name":"totalAmount","type":"uint256","indexed":false}]},
  {"type":"error","name":"NotEligible","inputs":[]},
  {"type":"error","name":"InsufficientVested","inputs":[{"name":"claimable","type":"uint256"},{"name":"requested","type":"uint256"}]}
]`
